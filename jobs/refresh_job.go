package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshInProgress is returned by TryRun while another run holds the job.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// SnapshotRefresher refreshes the cached IPO list.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*services.IPOSnapshot, error)
	Now() time.Time
}

// HistoryRefresher refreshes one stock's cached GMP history.
type HistoryRefresher interface {
	Refresh(ctx context.Context, stockID string) ([]models.GMPHistoryPoint, error)
}

// RefreshReport summarises one run.
type RefreshReport struct {
	IPOs               int           `json:"ipos"`
	Ongoing            int           `json:"ongoing"`
	HistoriesRefreshed int           `json:"histories_refreshed"`
	HistoryFailures    int           `json:"history_failures"`
	Duration           time.Duration `json:"duration"`
}

// RefreshJob keeps the IPO snapshot and the GMP histories of ongoing IPOs
// warm on a cron schedule.
type RefreshJob struct {
	Snapshots   SnapshotRefresher
	Histories   HistoryRefresher
	Concurrency int
	Timeout     time.Duration

	cron    *cron.Cron
	running sync.Mutex
}

func NewRefreshJob(snapshots SnapshotRefresher, histories HistoryRefresher, concurrency int) *RefreshJob {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RefreshJob{
		Snapshots:   snapshots,
		Histories:   histories,
		Concurrency: concurrency,
		Timeout:     5 * time.Minute,
	}
}

// Start schedules the job and runs it once right away.
func (j *RefreshJob) Start(schedule string) error {
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(schedule, j.runScheduled); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryConfiguration, "INVALID_SCHEDULE", err.Error(), "RefreshJob", "Start", false, err)
	}
	j.cron.Start()

	logrus.WithFields(logrus.Fields{
		"component": "RefreshJob",
		"schedule":  schedule,
	}).Info("Refresh job scheduled")

	go j.runScheduled()
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish.
func (j *RefreshJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

func (j *RefreshJob) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	_, err := j.TryRun(ctx)
	switch {
	case errors.Is(err, ErrRefreshInProgress):
		logrus.WithField("component", "RefreshJob").Warn("Previous refresh still running, skipping")
	case err != nil:
		logrus.WithField("component", "RefreshJob").WithError(err).Error("Refresh job failed")
	}
}

// TryRun runs the job unless a run is already in flight, in which case it
// returns ErrRefreshInProgress without waiting.
func (j *RefreshJob) TryRun(ctx context.Context) (*RefreshReport, error) {
	if !j.running.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer j.running.Unlock()
	return j.Run(ctx)
}

// Run refreshes the snapshot, then the GMP histories of ongoing IPOs with
// at most Concurrency fetches in flight. A snapshot failure aborts the run.
// A history failure is counted and logged; the cached history stays as it was.
// Run does not take the job lock; callers that may overlap use TryRun.
func (j *RefreshJob) Run(ctx context.Context) (*RefreshReport, error) {
	startTime := time.Now()
	logger := logrus.WithField("component", "RefreshJob")

	snapshot, err := j.Snapshots.Refresh(ctx)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "SNAPSHOT_REFRESH_FAILED", "RefreshJob", "Run", shared.IsRetryableError(err)).
			WithDetails(map[string]interface{}{"elapsed": time.Since(startTime).String()})
	}

	ongoing := services.FilterIPOs(snapshot.IPOs, j.Snapshots.Now()).Ongoing
	report := &RefreshReport{IPOs: len(snapshot.IPOs), Ongoing: len(ongoing)}

	var (
		mu           sync.Mutex
		sampleErrors []error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.Concurrency)

	for _, ipo := range ongoing {
		if ipo.StockID == nil || *ipo.StockID == "" {
			continue
		}
		stockID := *ipo.StockID
		group.Go(func() error {
			_, err := j.Histories.Refresh(groupCtx, stockID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.HistoryFailures++
				if len(sampleErrors) < 3 {
					sampleErrors = append(sampleErrors, err)
				}
				return nil
			}
			report.HistoriesRefreshed++
			return nil
		})
	}
	_ = group.Wait()

	report.Duration = time.Since(startTime)
	entry := logger.WithFields(logrus.Fields{
		"ipos":                report.IPOs,
		"ongoing":             report.Ongoing,
		"histories_refreshed": report.HistoriesRefreshed,
		"history_failures":    report.HistoryFailures,
		"duration":            report.Duration,
	})
	if report.HistoryFailures > 0 {
		entry.Warn(shared.BuildBatchErrorSummary(report.HistoriesRefreshed, report.HistoryFailures, sampleErrors))
	} else {
		entry.Info("Refresh job completed")
	}
	return report, nil
}
