package services

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/models"
)

type financialMetric int

const (
	metricUnknown financialMetric = iota
	metricRevenue
	metricProfit
	metricAssets
)

func classifyFinancialTitle(title string) financialMetric {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "revenue"):
		return metricRevenue
	case strings.Contains(t, "profit"), strings.Contains(t, "pat"):
		return metricProfit
	case strings.Contains(t, "asset"):
		return metricAssets
	default:
		return metricUnknown
	}
}

// PivotFinancials turns per-metric yearly maps into one row per year,
// sorted by year. Values that are not numbers are skipped for that
// metric only. Returns nil when no recognised metric has any year.
func PivotFinancials(metrics []models.RawFinancialMetric) []models.FinancialRow {
	rows := make(map[string]*models.FinancialRow)

	for _, metric := range metrics {
		kind := classifyFinancialTitle(metric.Title)
		if kind == metricUnknown {
			continue
		}
		for year, raw := range metric.Yearly {
			value, ok := toFiniteFloat(raw)
			if !ok {
				continue
			}
			row, exists := rows[year]
			if !exists {
				row = &models.FinancialRow{Year: year}
				rows[year] = row
			}
			switch kind {
			case metricRevenue:
				row.Revenue = &value
			case metricProfit:
				row.Profit = &value
			case metricAssets:
				row.TotalAssets = &value
			}
		}
	}

	if len(rows) == 0 {
		return nil
	}

	result := make([]models.FinancialRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year < result[j].Year })
	return result
}

// toFiniteFloat coerces a decoded JSON value to a finite float64.
// Numeric strings are accepted (with thousands separators); booleans,
// empty strings and everything else are not.
func toFiniteFloat(raw interface{}) (float64, bool) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		value = f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		value = f
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
