package services

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/sirupsen/logrus"
)

// Field aliases seen across GMP history providers, in priority order.
var (
	gmpHistoryContainers = []string{"history", "chart", "chart_data", "points"}
	gmpDateAliases       = []string{"date", "timestamp", "time"}
	gmpValueAliases      = []string{"gmp_value", "gmp", "value"}
	gmpIPOPriceAliases   = []string{"ipo_price", "ipoPrice"}
	gmpListingAliases    = []string{"listing_percent", "listingPercent"}
)

// ISO layouts come first; the rest are the day-first and spelled-month
// forms IPO listings publish.
var gmpDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-06",
	"2-Jan-2006",
	"02-01-2006",
	"2-1-2006",
	"2/1/2006",
}

// NormalizeGMPHistory decodes a raw GMP history payload and normalizes it.
// Invalid JSON yields an empty history.
func NormalizeGMPHistory(payload []byte) []models.GMPHistoryPoint {
	if len(payload) == 0 {
		return []models.GMPHistoryPoint{}
	}
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		logrus.WithField("component", "GMPHistoryNormalizer").WithError(err).Warn("GMP history payload is not valid JSON")
		return []models.GMPHistoryPoint{}
	}
	return NormalizeGMPHistoryValue(decoded)
}

// NormalizeGMPHistoryValue normalizes an already decoded payload: either a
// bare array of rows or an object holding the rows under one of
// history, chart, chart_data or points (checked in that order).
// Rows without a usable date or a finite value are dropped and the result
// is sorted ascending by timestamp. It never fails.
func NormalizeGMPHistoryValue(source interface{}) []models.GMPHistoryPoint {
	rows := unwrapGMPRows(source)

	type datedPoint struct {
		at    time.Time
		point models.GMPHistoryPoint
	}
	dated := make([]datedPoint, 0, len(rows))
	dropped := 0

	for _, rawRow := range rows {
		row, ok := rawRow.(map[string]interface{})
		if !ok {
			dropped++
			continue
		}

		dateText, at, ok := resolveGMPDate(row)
		if !ok {
			dropped++
			continue
		}
		value, ok := resolveGMPNumber(row, gmpValueAliases)
		if !ok {
			dropped++
			continue
		}

		point := models.GMPHistoryPoint{Date: dateText, GMPValue: value}
		if price, ok := resolveGMPNumber(row, gmpIPOPriceAliases); ok {
			point.IPOPrice = &price
		}
		if listing, ok := resolveGMPNumber(row, gmpListingAliases); ok {
			point.ListingPercent = &listing
		}
		dated = append(dated, datedPoint{at: at, point: point})
	}

	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "GMPHistoryNormalizer",
			"dropped":   dropped,
			"kept":      len(dated),
		}).Warn("Dropped malformed GMP history rows")
	}

	sort.SliceStable(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })

	points := make([]models.GMPHistoryPoint, 0, len(dated))
	for _, d := range dated {
		points = append(points, d.point)
	}
	return points
}

func unwrapGMPRows(source interface{}) []interface{} {
	switch v := source.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		for _, key := range gmpHistoryContainers {
			if rows, ok := v[key].([]interface{}); ok {
				return rows
			}
		}
	}
	return nil
}

// resolveGMPDate takes the first non-empty date alias. Strings must parse;
// numbers are epoch seconds or milliseconds and are rendered as RFC3339.
func resolveGMPDate(row map[string]interface{}) (string, time.Time, bool) {
	for _, alias := range gmpDateAliases {
		raw, exists := row[alias]
		if !exists || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			text := strings.TrimSpace(v)
			if text == "" {
				continue
			}
			at, ok := ParseFlexibleTime(text, time.UTC)
			if !ok {
				return "", time.Time{}, false
			}
			return text, at, true
		case float64:
			at, ok := epochToTime(v)
			if !ok {
				return "", time.Time{}, false
			}
			return at.Format(time.RFC3339), at, true
		default:
			return "", time.Time{}, false
		}
	}
	return "", time.Time{}, false
}

func resolveGMPNumber(row map[string]interface{}, aliases []string) (float64, bool) {
	for _, alias := range aliases {
		raw, exists := row[alias]
		if !exists || raw == nil {
			continue
		}
		return toFiniteFloat(raw)
	}
	return 0, false
}

// epochToTime reads values above 1e12 as milliseconds, otherwise seconds.
func epochToTime(v float64) (time.Time, bool) {
	if v != v || v <= 0 || v > 1e15 {
		return time.Time{}, false
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC(), true
	}
	return time.Unix(int64(v), 0).UTC(), true
}

// ParseFlexibleTime parses the date formats IPO backends emit. Strings
// without a zone are read in loc.
func ParseFlexibleTime(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range gmpDateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
