package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Raw codes produced by ClassifyRegistrarResponse.
const (
	RawAllotted    = "ALLOTTED"
	RawNotAllotted = "NOT_ALLOTTED"
	RawNotFound    = "NOT_FOUND"
)

const (
	fieldUserInput = "USER_INPUT"
	fieldScrape    = "SCRAPE:"
)

// ErrFormNotConfigured is returned for IPOs without a registrar form.
var ErrFormNotConfigured = errors.New("registrar form not configured")

// AllotmentChecker posts registrar allotment forms and maps the answer to
// a canonical AllotmentStatus.
type AllotmentChecker struct {
	RateLimiter *shared.HTTPRequestRateLimiter
	Timeout     time.Duration
	UserAgent   string
	metrics     *shared.ServiceMetrics
	now         func() time.Time
}

// NewAllotmentChecker creates a checker that spaces registrar calls by
// two seconds.
func NewAllotmentChecker() *AllotmentChecker {
	return &AllotmentChecker{
		RateLimiter: shared.NewHTTPRequestRateLimiter(2 * time.Second),
		Timeout:     30 * time.Second,
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		metrics:     shared.NewServiceMetrics("Allotment_Checker"),
		now:         time.Now,
	}
}

// Metrics returns the checker's metrics.
func (a *AllotmentChecker) Metrics() *shared.ServiceMetrics {
	return a.metrics
}

// Check queries the registrar for pan. A response matching neither
// selector set is reported as PENDING.
func (a *AllotmentChecker) Check(ctx context.Context, form *models.RegistrarForm, pan string) (*models.AllotmentResult, error) {
	if form == nil || form.FormURL == nil || *form.FormURL == "" {
		return nil, ErrFormNotConfigured
	}
	if err := a.RateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rawStatus, err := a.query(ctx, form, pan)
	a.metrics.RecordRequest(err == nil, time.Since(start))
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REGISTRAR_REQUEST_FAILED", "AllotmentChecker", "Check", true)
	}

	status := MapAllotmentStatus(rawStatus)
	a.metrics.IncrementCounter("status_" + strings.ToLower(string(status)))

	return &models.AllotmentResult{
		IPOID:     form.IPOID,
		PanHash:   HashPAN(pan),
		Status:    status,
		RawStatus: rawStatus,
		Source:    form.Registrar,
		CheckedAt: a.now(),
	}, nil
}

func (a *AllotmentChecker) query(ctx context.Context, form *models.RegistrarForm, pan string) (string, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "AllotmentChecker",
		"registrar": form.Registrar,
		"ipo_id":    form.IPOID,
	})

	c := colly.NewCollector(colly.UserAgent(a.UserAgent), colly.AllowURLRevisit())
	c.SetRequestTimeout(a.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Referer", *form.FormURL)
		for k, v := range form.FormHeaders {
			r.Headers.Set(k, v)
		}
		if r.Method == "POST" && r.Headers.Get("Content-Type") == "" {
			r.Headers.Set("Content-Type", "application/json; charset=utf-8")
		}
		r.Headers.Set("X-Requested-With", "XMLHttpRequest")
	})

	scraped, err := a.scrapeHiddenFields(c, form)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(BuildRegistrarPayload(form.FormFields, scraped, pan))
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var body []byte
	var contentType string
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
	})
	var errorBody string
	c.OnError(func(r *colly.Response, err error) {
		errorBody = string(r.Body)
	})

	target := *form.FormURL
	if form.ParserConfig.SubmitURL != "" {
		target = form.ParserConfig.SubmitURL
	}

	if err := c.PostRaw(target, payload); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to post to registrar: %w, body: %s", err, truncate(errorBody, 256))
	}

	status := ClassifyRegistrarResponse(body, contentType, form.ParserConfig.StatusSelectors)
	if status == RawNotFound {
		logger.Warn("Status not found in registrar response")
	}
	return status, nil
}

// scrapeHiddenFields visits the form page when any field is SCRAPE:<selector>.
func (a *AllotmentChecker) scrapeHiddenFields(c *colly.Collector, form *models.RegistrarForm) (map[string]string, error) {
	scraped := make(map[string]string)
	needsScraping := false
	for _, v := range form.FormFields {
		if strings.HasPrefix(v, fieldScrape) {
			needsScraping = true
			break
		}
	}
	if !needsScraping {
		return scraped, nil
	}

	scrapeCollector := c.Clone()
	scrapeCollector.OnHTML("html", func(e *colly.HTMLElement) {
		for k, v := range form.FormFields {
			if strings.HasPrefix(v, fieldScrape) {
				value, _ := e.DOM.Find(strings.TrimPrefix(v, fieldScrape)).Attr("value")
				scraped[k] = value
			}
		}
	})
	if err := scrapeCollector.Visit(*form.FormURL); err != nil {
		return nil, fmt.Errorf("failed to scrape form page: %w", err)
	}
	return scraped, nil
}

// BuildRegistrarPayload resolves form field placeholders.
func BuildRegistrarPayload(fields, scraped map[string]string, pan string) map[string]interface{} {
	data := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch {
		case v == fieldUserInput:
			data[k] = strings.ToUpper(strings.TrimSpace(pan))
		case strings.HasPrefix(v, fieldScrape):
			data[k] = scraped[k]
			// some registrars reject an empty checksum field
			if k == "CHKVAL" && scraped[k] == "" {
				data[k] = "1"
			}
		default:
			data[k] = v
		}
	}
	return data
}

// ClassifyRegistrarResponse matches the configured selectors against the
// registrar's answer. JSON answers carrying HTML under "d" (ASP.NET page
// methods) are unwrapped first.
func ClassifyRegistrarResponse(body []byte, contentType string, selectors models.StatusSelectors) string {
	html := body
	if strings.Contains(strings.ToLower(contentType), "json") {
		var wrapped map[string]interface{}
		if err := json.Unmarshal(body, &wrapped); err == nil {
			if d, ok := wrapped["d"].(string); ok {
				html = []byte(d)
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		logrus.WithField("component", "AllotmentChecker").WithError(err).Warn("Failed to parse registrar HTML")
		return RawNotFound
	}

	for _, selector := range selectors.Allotted {
		if doc.Find(selector).Length() > 0 {
			return RawAllotted
		}
	}
	for _, selector := range selectors.NotAllotted {
		if doc.Find(selector).Length() > 0 {
			return RawNotAllotted
		}
	}
	return RawNotFound
}

// HashPAN returns a hex SHA-256 of the normalized PAN so results can be
// logged and cached without the PAN itself.
func HashPAN(pan string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(pan))))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
