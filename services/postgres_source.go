package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrIPONotFound is returned when an IPO id has no row.
var ErrIPONotFound = errors.New("ipo not found")

// listRawIPOsQuery joins every IPO with its freshest matching GMP row,
// preferring a stock_id match over a company_code match.
const listRawIPOsQuery = `
	SELECT DISTINCT ON (i.id)
		i.id, i.stock_id, i.name, i.company_code, i.symbol, i.registrar,
		i.open_date, i.close_date, i.result_date, i.listing_date,
		i.price_band_low, i.price_band_high, i.issue_size, i.min_qty, i.min_amount,
		i.status, i.subscription_status, i.listing_gain,
		i.logo_url, i.description, i.about, i.strengths, i.risks,
		g.gmp_value, g.gain_percent, g.estimated_listing, g.last_updated,
		g.stock_id, g.subscription_status, g.listing_gain, g.ipo_status, g.data_source
	FROM ipo_list i
	LEFT JOIN ipo_gmp g ON (
		(i.stock_id IS NOT NULL AND g.stock_id IS NOT NULL AND i.stock_id = g.stock_id)
		OR i.company_code = g.company_code
	)
	ORDER BY
		i.id,
		CASE
			WHEN i.stock_id IS NOT NULL AND g.stock_id IS NOT NULL AND i.stock_id = g.stock_id THEN 1
			WHEN i.company_code = g.company_code THEN 2
			ELSE 3
		END,
		g.last_updated DESC NULLS LAST
`

const registrarFormQuery = `
	SELECT registrar, form_url, form_fields, form_headers, parser_config
	FROM ipo_list
	WHERE id = $1
`

// PostgresIPOSource reads raw v1 IPO rows from the IPO backend database.
type PostgresIPOSource struct {
	DB         *sql.DB
	maxRetries int
	baseDelay  time.Duration
	metrics    *shared.ServiceMetrics
}

// NewPostgresIPOSource creates a source over db.
func NewPostgresIPOSource(db *sql.DB) *PostgresIPOSource {
	return &PostgresIPOSource{
		DB:         db,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		metrics:    shared.NewServiceMetrics("Postgres_IPO_Source"),
	}
}

// Metrics returns the source's query metrics.
func (s *PostgresIPOSource) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// ListIPOs reads all rows and transforms them into DisplayIPOs.
func (s *PostgresIPOSource) ListIPOs(ctx context.Context) ([]models.DisplayIPO, error) {
	raws, err := s.ListRawIPOs(ctx)
	if err != nil {
		return nil, err
	}
	return TransformMany(raws), nil
}

// ListRawIPOs reads every IPO joined with its GMP data.
func (s *PostgresIPOSource) ListRawIPOs(ctx context.Context) ([]*models.RawIPO, error) {
	var raws []*models.RawIPO
	err := s.executeWithRetry(ctx, "ListRawIPOs", func() error {
		raws = nil
		rows, err := s.DB.QueryContext(ctx, listRawIPOsQuery)
		if err != nil {
			return fmt.Errorf("failed to query IPOs with GMP: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			raw, err := scanRawIPO(rows)
			if err != nil {
				return err
			}
			raws = append(raws, raw)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating IPO with GMP rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, "LIST_IPOS_FAILED", "PostgresIPOSource", "ListRawIPOs", shared.IsRetryableError(err))
	}
	return raws, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRawIPO(rows rowScanner) (*models.RawIPO, error) {
	var (
		raw                                      models.RawIPO
		stockID, symbol, issueSize               sql.NullString
		status, subscription, listingGain        sql.NullString
		logoURL, description, about              sql.NullString
		openDate, closeDate, resultDate, listing sql.NullTime
		priceLow, priceHigh                      sql.NullFloat64
		minQty, minAmount                        sql.NullInt64
		strengths, risks                         []byte
		gmpValue, gainPercent, estimatedListing  sql.NullFloat64
		gmpUpdated                               sql.NullTime
		gmpStockID, gmpSubscription, gmpListing  sql.NullString
		gmpStatus, gmpSource                     sql.NullString
	)

	err := rows.Scan(
		&raw.ID, &stockID, &raw.Name, &raw.CompanyCode, &symbol, &raw.Registrar,
		&openDate, &closeDate, &resultDate, &listing,
		&priceLow, &priceHigh, &issueSize, &minQty, &minAmount,
		&status, &subscription, &listingGain,
		&logoURL, &description, &about, &strengths, &risks,
		&gmpValue, &gainPercent, &estimatedListing, &gmpUpdated,
		&gmpStockID, &gmpSubscription, &gmpListing, &gmpStatus, &gmpSource,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan IPO with GMP row: %w", err)
	}

	raw.StockID = nullString(stockID)
	raw.Symbol = nullString(symbol)
	raw.IssueSize = nullString(issueSize)
	raw.Status = status.String
	raw.SubscriptionStatus = nullString(subscription)
	raw.ListingGain = nullString(listingGain)
	raw.LogoURL = nullString(logoURL)
	raw.Description = nullString(description)
	raw.About = nullString(about)

	raw.OpenDate = nullDate(openDate)
	raw.CloseDate = nullDate(closeDate)
	raw.ResultDate = nullDate(resultDate)
	raw.ListingDate = nullDate(listing)

	raw.PriceBandLow = nullFloat(priceLow)
	raw.PriceBandHigh = nullFloat(priceHigh)
	raw.MinQty = nullInt(minQty)
	raw.MinAmount = nullInt(minAmount)

	raw.Strengths = decodeStringList(strengths, raw.ID, "strengths")
	raw.Risks = decodeStringList(risks, raw.ID, "risks")

	raw.GMPValue = nullFloat(gmpValue)
	raw.GainPercent = nullFloat(gainPercent)
	raw.EstimatedListing = nullFloat(estimatedListing)
	if gmpUpdated.Valid {
		ts := gmpUpdated.Time.UTC().Format(time.RFC3339)
		raw.GMPLastUpdated = &ts
	}
	raw.GMPStockID = nullString(gmpStockID)
	raw.GMPSubscriptionStatus = nullString(gmpSubscription)
	raw.GMPListingGain = nullString(gmpListing)
	raw.GMPIPOStatus = nullString(gmpStatus)
	raw.GMPDataSource = nullString(gmpSource)

	return &raw, nil
}

// GetRegistrarForm loads the allotment form configuration of one IPO.
func (s *PostgresIPOSource) GetRegistrarForm(ctx context.Context, ipoID uuid.UUID) (*models.RegistrarForm, error) {
	var (
		registrar string
		stored    models.RawRegistrarForm
		formURL   sql.NullString
	)
	err := s.executeWithRetry(ctx, "GetRegistrarForm", func() error {
		row := s.DB.QueryRowContext(ctx, registrarFormQuery, ipoID)
		var fields, headers, parser []byte
		if err := row.Scan(&registrar, &formURL, &fields, &headers, &parser); err != nil {
			return err
		}
		stored.FormFields = fields
		stored.FormHeaders = headers
		stored.ParserConfig = parser
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIPONotFound
	}
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, "GET_FORM_FAILED", "PostgresIPOSource", "GetRegistrarForm", false)
	}
	stored.FormURL = nullString(formURL)
	return ParseRegistrarForm(ipoID, registrar, stored)
}

// ParseRegistrarForm decodes the JSONB form configuration columns.
func ParseRegistrarForm(ipoID uuid.UUID, registrar string, stored models.RawRegistrarForm) (*models.RegistrarForm, error) {
	form := &models.RegistrarForm{
		IPOID:       ipoID,
		Registrar:   registrar,
		FormURL:     stored.FormURL,
		FormFields:  map[string]string{},
		FormHeaders: map[string]string{},
	}
	if len(stored.FormFields) > 0 {
		if err := json.Unmarshal(stored.FormFields, &form.FormFields); err != nil {
			return nil, fmt.Errorf("invalid form fields config: %w", err)
		}
	}
	if len(stored.FormHeaders) > 0 {
		if err := json.Unmarshal(stored.FormHeaders, &form.FormHeaders); err != nil {
			return nil, fmt.Errorf("invalid form headers config: %w", err)
		}
	}
	if len(stored.ParserConfig) > 0 {
		if err := json.Unmarshal(stored.ParserConfig, &form.ParserConfig); err != nil {
			return nil, fmt.Errorf("invalid parser config: %w", err)
		}
	}
	return form, nil
}

// executeWithRetry runs a query with exponential backoff on transient errors.
func (s *PostgresIPOSource) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay * time.Duration(1<<uint(attempt-1))
			logrus.WithFields(logrus.Fields{
				"component": "PostgresIPOSource",
				"operation": operation,
				"attempt":   attempt,
				"delay":     delay,
				"error":     lastErr,
			}).Warn("Retrying database operation")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		start := time.Now()
		err := fn()
		s.metrics.RecordRequest(err == nil || errors.Is(err, sql.ErrNoRows), time.Since(start))
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableDBError(err) {
			return err
		}
	}
	return fmt.Errorf("database operation failed after %d retries: %w", s.maxRetries, lastErr)
}

func isRetryableDBError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused", "connection reset", "timeout", "temporary failure",
		"deadlock", "lock wait timeout", "connection lost", "server shutdown",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func decodeStringList(data []byte, ipoID, column string) []string {
	if len(data) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "PostgresIPOSource",
			"ipo_id":    ipoID,
			"column":    column,
		}).WithError(err).Warn("Ignoring malformed JSON list column")
		return nil
	}
	return values
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// nullDate renders a DATE/TIMESTAMP column as YYYY-MM-DD.
func nullDate(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	s := v.Time.Format("2006-01-02")
	return &s
}
