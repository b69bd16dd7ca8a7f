package services

import (
	"testing"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCategorizeIssueSize(t *testing.T) {
	tests := []struct {
		issueSize string
		want      models.IPOCategory
	}{
		{"1200 Cr", models.CategoryMainboard},
		{"10 Cr", models.CategorySME},
		{"250000000", models.CategoryMainboard},
		{"249999999", models.CategorySME},
		{"₹1,250.75 Crore", models.CategoryMainboard},
		{"24.99 crores", models.CategorySME},
		{"2,40,00,000", models.CategorySME},
		{"not disclosed", models.CategoryMainboard},
		{"", models.CategoryMainboard},
		{"Cr", models.CategoryMainboard},
	}

	for _, tt := range tests {
		t.Run(tt.issueSize, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeIssueSize(tt.issueSize))
		})
	}
}

func TestIssueSizeInCrore(t *testing.T) {
	crores, ok := IssueSizeInCrore("1,200.5 Cr")
	assert.True(t, ok)
	assert.True(t, crores.Equal(decimal.RequireFromString("1200.5")))

	crores, ok = IssueSizeInCrore("250000000")
	assert.True(t, ok)
	assert.True(t, crores.Equal(decimal.NewFromInt(25)))

	_, ok = IssueSizeInCrore("about forty")
	assert.False(t, ok)
}

func TestResolveCategory(t *testing.T) {
	sme := "SME"
	mainboard := " Mainboard "
	other := "emerge"

	assert.Equal(t, models.CategorySME, ResolveCategory(&sme, "5000 Cr"))
	assert.Equal(t, models.CategoryMainboard, ResolveCategory(&mainboard, "5 Cr"))
	assert.Equal(t, models.CategorySME, ResolveCategory(&other, "5 Cr"))
	assert.Equal(t, models.CategoryMainboard, ResolveCategory(nil, "500 Cr"))
}

func TestCategorizeIssueSizeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("result is always sme or mainboard", prop.ForAll(
		func(raw string) bool {
			c := CategorizeIssueSize(raw)
			return c == models.CategorySME || c == models.CategoryMainboard
		},
		gen.AnyString(),
	))

	properties.Property("crore sizes split at 25", prop.ForAll(
		func(crores int) bool {
			got := CategorizeIssueSize(decimal.NewFromInt(int64(crores)).String() + " Cr")
			if crores < 25 {
				return got == models.CategorySME
			}
			return got == models.CategoryMainboard
		},
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}
