package services

import (
	"encoding/json"
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/sirupsen/logrus"
)

// MarketIndicesKey is the cache key of the latest index snapshot.
const MarketIndicesKey = "market_indices"

var (
	indexValueAliases   = []string{"value", "last", "current"}
	indexChangeAliases  = []string{"change", "net_change"}
	indexPercentAliases = []string{"change_percent", "pChange"}
	indexUpdatedAliases = []string{"updated_at", "timestamp", "last_updated"}
	indexContainers     = []string{"data", "indices"}
)

// NormalizeMarketIndices decodes a raw index snapshot (bare array or an
// object holding it under data or indices). Rows without a name or a
// finite value are dropped. It never fails.
func NormalizeMarketIndices(payload []byte) []models.MarketIndex {
	indices := []models.MarketIndex{}

	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		logrus.WithField("component", "MarketIndexNormalizer").WithError(err).Warn("Market index payload is not valid JSON")
		return indices
	}

	rows, ok := decoded.([]interface{})
	if object, isObject := decoded.(map[string]interface{}); isObject {
		for _, key := range indexContainers {
			if rows, ok = object[key].([]interface{}); ok {
				break
			}
		}
	}
	if !ok {
		logrus.WithField("component", "MarketIndexNormalizer").Warn("Market index payload holds no array")
		return indices
	}

	dropped := 0
	for _, rawRow := range rows {
		row, isObject := rawRow.(map[string]interface{})
		if !isObject {
			dropped++
			continue
		}
		name, _ := row["name"].(string)
		name = strings.TrimSpace(name)
		value, hasValue := resolveGMPNumber(row, indexValueAliases)
		if name == "" || !hasValue {
			dropped++
			continue
		}

		change, _ := resolveGMPNumber(row, indexChangeAliases)
		percent, _ := resolveGMPNumber(row, indexPercentAliases)

		id, _ := row["id"].(string)
		if strings.TrimSpace(id) == "" {
			id = strings.ReplaceAll(GenerateCompanyCode(name), "-", "")
		}

		indices = append(indices, models.MarketIndex{
			ID:            id,
			Name:          name,
			Value:         value,
			Change:        change,
			ChangePercent: percent,
			IsPositive:    change >= 0,
			UpdatedAt:     firstString(row, indexUpdatedAliases),
		})
	}

	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "MarketIndexNormalizer",
			"dropped":   dropped,
		}).Warn("Dropped malformed market index rows")
	}
	return indices
}

func firstString(row map[string]interface{}, aliases []string) *string {
	for _, alias := range aliases {
		if s, ok := row[alias].(string); ok && strings.TrimSpace(s) != "" {
			value := strings.TrimSpace(s)
			return &value
		}
	}
	return nil
}
