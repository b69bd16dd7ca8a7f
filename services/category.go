package services

import (
	"regexp"
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SMEThresholdCrore is the issue size below which an IPO is treated as SME.
var SMEThresholdCrore = decimal.NewFromInt(25)

var (
	rupeesPerCrore   = decimal.NewFromInt(10_000_000)
	firstNumberRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	plainRupeesRegex = regexp.MustCompile(`^[\d,]+$`)
)

// IssueSizeInCrore extracts an issue size in crores from free-form text.
// "1,200.5 Cr" and "10 crore" are read as crores, a bare "250000000" as
// rupees. ok is false when neither pattern applies.
func IssueSizeInCrore(issueSize string) (decimal.Decimal, bool) {
	text := strings.TrimSpace(issueSize)
	if text == "" {
		return decimal.Zero, false
	}

	if strings.Contains(strings.ToLower(text), "cr") {
		token := firstNumberRegex.FindString(text)
		if token == "" {
			return decimal.Zero, false
		}
		crores, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
		if err != nil {
			return decimal.Zero, false
		}
		return crores, true
	}

	if plainRupeesRegex.MatchString(text) {
		rupees, err := decimal.NewFromString(strings.ReplaceAll(text, ",", ""))
		if err != nil {
			return decimal.Zero, false
		}
		return rupees.Div(rupeesPerCrore), true
	}

	return decimal.Zero, false
}

// CategorizeIssueSize classifies an IPO as sme or mainboard from its issue
// size. This is a heuristic: anything it cannot read is mainboard.
func CategorizeIssueSize(issueSize string) models.IPOCategory {
	crores, ok := IssueSizeInCrore(issueSize)
	if !ok {
		if strings.TrimSpace(issueSize) != "" {
			logrus.WithFields(logrus.Fields{
				"component":  "CategoryHeuristic",
				"issue_size": issueSize,
			}).Warn("Unreadable issue size, defaulting to mainboard")
		}
		return models.CategoryMainboard
	}
	if crores.LessThan(SMEThresholdCrore) {
		return models.CategorySME
	}
	return models.CategoryMainboard
}

// ResolveCategory prefers an explicit backend category and falls back to
// the issue size heuristic.
func ResolveCategory(explicit *string, issueSize string) models.IPOCategory {
	if explicit != nil {
		switch models.IPOCategory(strings.ToLower(strings.TrimSpace(*explicit))) {
		case models.CategoryMainboard:
			return models.CategoryMainboard
		case models.CategorySME:
			return models.CategorySME
		}
	}
	return CategorizeIssueSize(issueSize)
}
