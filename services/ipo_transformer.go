package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/sirupsen/logrus"
)

const transformerComponent = "IPOTransformer"

// TransformOne converts a flat (v1) backend record into a DisplayIPO.
// A nil record is the only hard failure and returns an error wrapping
// shared.ErrInvalidInput.
func TransformOne(raw *models.RawIPO) (*models.DisplayIPO, error) {
	if raw == nil {
		return nil, shared.NewInvalidInputError(transformerComponent, "TransformOne", "raw IPO record is nil")
	}

	name := strings.TrimSpace(raw.Name)
	issueSize := NormalizeTextContent(textOrEmpty(raw.IssueSize))

	ipo := &models.DisplayIPO{
		ID:          raw.ID,
		StockID:     optionalText(raw.StockID),
		Name:        name,
		CompanyName: name,
		CompanyCode: companyCodeOrSlug(raw.CompanyCode, name),
		Symbol:      normalizedSymbol(raw.Symbol),
		PriceRange: models.PriceRange{
			Min: copyFloat(raw.PriceBandLow),
			Max: copyFloat(raw.PriceBandHigh),
		},
		Status: NormalizeStatus(raw.Status),
		Dates: models.IPODates{
			Open:      optionalText(raw.OpenDate),
			Close:     optionalText(raw.CloseDate),
			Allotment: optionalText(raw.ResultDate),
			Listing:   optionalText(raw.ListingDate),
		},
		LotSize:            intOrZero(raw.MinQty),
		MinInvestment:      minInvestment(raw.MinAmount, raw.MinQty, raw.PriceBandHigh),
		Registrar:          strings.TrimSpace(raw.Registrar),
		LogoURL:            optionalText(raw.LogoURL),
		Category:           CategorizeIssueSize(issueSize),
		IssueSize:          issueSize,
		SubscriptionStatus: NormalizeTextContent(textOrEmpty(firstNonEmpty(raw.SubscriptionStatus, raw.GMPSubscriptionStatus))),
		ListingGain:        textOrEmpty(firstNonEmpty(raw.ListingGain, raw.GMPListingGain)),
		Description:        textOrEmpty(raw.Description),
		About:              textOrEmpty(raw.About),
		Strengths:          copyStrings(raw.Strengths),
		Risks:              copyStrings(raw.Risks),
		Categories:         []models.SubscriptionCategory{},
		FAQs:               []models.FAQ{},
	}

	if raw.GMPValue != nil {
		ipo.GMP = &models.GMPInfo{
			Value:              copyFloat(raw.GMPValue),
			GainPercent:        copyFloat(raw.GainPercent),
			EstimatedListing:   copyFloat(raw.EstimatedListing),
			LastUpdated:        optionalText(raw.GMPLastUpdated),
			SubscriptionStatus: optionalText(raw.GMPSubscriptionStatus),
			ListingGain:        optionalText(raw.GMPListingGain),
			DataSource:         optionalText(raw.GMPDataSource),
		}
	}

	return ipo, nil
}

// TransformOneV2 converts a nested (v2) backend record into a DisplayIPO.
func TransformOneV2(raw *models.RawIPOV2) (*models.DisplayIPO, error) {
	if raw == nil {
		return nil, shared.NewInvalidInputError(transformerComponent, "TransformOneV2", "raw IPO record is nil")
	}

	name := strings.TrimSpace(raw.Name)
	issueSize := NormalizeTextContent(textOrEmpty(raw.IssueSize))
	groww := raw.GrowwDetails
	if groww == nil {
		groww = &models.GrowwDetails{}
	}

	companyName := name
	if v := firstNonEmpty(raw.CompanyName, groww.CompanyName); v != nil {
		companyName = *v
	}

	lotSize := raw.LotSize
	if lotSize == nil {
		lotSize = raw.MinQty
	}

	var gmpSubscription, gmpListingGain *string
	if raw.GMP != nil {
		gmpSubscription = raw.GMP.SubscriptionStatus
		gmpListingGain = raw.GMP.ListingGain
	}

	categories := raw.Categories
	if len(categories) == 0 {
		categories = groww.SubscriptionBreakdown
	}

	ipo := &models.DisplayIPO{
		ID:          raw.ID,
		StockID:     optionalText(raw.StockID),
		Name:        name,
		CompanyName: companyName,
		CompanyCode: companyCodeOrSlug(raw.CompanyCode, name),
		Symbol:      normalizedSymbol(raw.Symbol),
		PriceRange: models.PriceRange{
			Min: copyFloat(raw.PriceBandLow),
			Max: copyFloat(raw.PriceBandHigh),
		},
		Status: NormalizeStatus(raw.Status),
		Dates: models.IPODates{
			Open:      optionalText(raw.OpenDate),
			Close:     optionalText(raw.CloseDate),
			Allotment: firstNonEmpty(raw.AllotmentDate, raw.ResultDate),
			Listing:   optionalText(raw.ListingDate),
		},
		LotSize:            intOrZero(lotSize),
		MinInvestment:      minInvestment(raw.MinAmount, lotSize, raw.PriceBandHigh),
		Registrar:          strings.TrimSpace(raw.Registrar),
		LogoURL:            firstNonEmpty(raw.LogoURL, groww.LogoURL),
		Category:           ResolveCategory(raw.Category, issueSize),
		IssueSize:          issueSize,
		SubscriptionStatus: NormalizeTextContent(textOrEmpty(firstNonEmpty(raw.SubscriptionStatus, groww.OverallSubscription, gmpSubscription))),
		ListingGain:        textOrEmpty(firstNonEmpty(raw.ListingGain, groww.ListingGain, gmpListingGain)),
		Description:        textOrEmpty(raw.Description),
		About:              textOrEmpty(firstNonEmpty(raw.About, groww.About)),
		Strengths:          copyStrings(raw.Strengths),
		Risks:              copyStrings(raw.Risks),
		Financials:         PivotFinancials(raw.Financials),
		Categories:         copyCategories(categories),
		FAQs:               copyFAQs(raw.FAQs),
		GrowwDetails:       copyGrowwDetails(raw.GrowwDetails),
	}

	if raw.GMP != nil {
		ipo.GMP = &models.GMPInfo{
			Value:              copyFloat(raw.GMP.Value),
			GainPercent:        copyFloat(raw.GMP.GainPercent),
			EstimatedListing:   copyFloat(raw.GMP.EstimatedListing),
			LastUpdated:        optionalText(raw.GMP.LastUpdated),
			SubscriptionStatus: optionalText(raw.GMP.SubscriptionStatus),
			ListingGain:        optionalText(raw.GMP.ListingGain),
			DataSource:         optionalText(raw.GMP.DataSource),
		}
	}

	return ipo, nil
}

// TransformMany transforms every non-nil record. It never fails: nil
// elements are skipped with a warning and a nil slice yields an empty one.
func TransformMany(raws []*models.RawIPO) []models.DisplayIPO {
	result := make([]models.DisplayIPO, 0, len(raws))
	for i, raw := range raws {
		ipo, err := TransformOne(raw)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": transformerComponent,
				"index":     i,
			}).WithError(err).Warn("Skipping untransformable IPO record")
			continue
		}
		result = append(result, *ipo)
	}
	return result
}

// TransformManyV2 is TransformMany for v2 records.
func TransformManyV2(raws []*models.RawIPOV2) []models.DisplayIPO {
	result := make([]models.DisplayIPO, 0, len(raws))
	for i, raw := range raws {
		ipo, err := TransformOneV2(raw)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": transformerComponent,
				"index":     i,
			}).WithError(err).Warn("Skipping untransformable IPO record")
			continue
		}
		result = append(result, *ipo)
	}
	return result
}

// DecodeIPOList decodes a v1 list payload and transforms it. The payload may
// be a bare array or a {"data": [...]} envelope. Anything else, and any
// element that does not decode, is logged and skipped.
func DecodeIPOList(payload []byte) []models.DisplayIPO {
	elements := decodeListElements(payload, "DecodeIPOList")
	raws := make([]*models.RawIPO, 0, len(elements))
	for i, element := range elements {
		var raw *models.RawIPO
		if err := json.Unmarshal(element, &raw); err != nil {
			logMalformedElement("DecodeIPOList", i, err)
			continue
		}
		raws = append(raws, raw)
	}
	return TransformMany(raws)
}

// DecodeIPOListV2 decodes and transforms a v2 list payload.
func DecodeIPOListV2(payload []byte) []models.DisplayIPO {
	elements := decodeListElements(payload, "DecodeIPOListV2")
	raws := make([]*models.RawIPOV2, 0, len(elements))
	for i, element := range elements {
		var raw *models.RawIPOV2
		if err := json.Unmarshal(element, &raw); err != nil {
			logMalformedElement("DecodeIPOListV2", i, err)
			continue
		}
		raws = append(raws, raw)
	}
	return TransformManyV2(raws)
}

// decodeListElements unwraps a bare array or a {"data": [...]} envelope
// into its raw elements.
func decodeListElements(payload []byte, operation string) []json.RawMessage {
	logger := logrus.WithFields(logrus.Fields{
		"component": transformerComponent,
		"operation": operation,
	})

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			logger.WithError(err).Warn("IPO list payload is not valid JSON, returning empty list")
			return nil
		}
		trimmed = bytes.TrimSpace(envelope.Data)
	}

	if len(trimmed) == 0 || trimmed[0] != '[' {
		logger.Warn("IPO list payload is not an array, returning empty list")
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		logger.WithError(err).Warn("IPO list payload is not valid JSON, returning empty list")
		return nil
	}
	return elements
}

func logMalformedElement(operation string, index int, err error) {
	logrus.WithFields(logrus.Fields{
		"component": transformerComponent,
		"operation": operation,
		"index":     index,
	}).WithError(err).Warn("Skipping malformed IPO record")
}

func companyCodeOrSlug(code, name string) string {
	if c := strings.TrimSpace(code); c != "" {
		return c
	}
	return GenerateCompanyCode(name)
}

func normalizedSymbol(symbol *string) *string {
	if symbol == nil {
		return nil
	}
	return NormalizeSymbol(*symbol)
}

// minInvestment prefers the backend's amount and otherwise derives it
// from one lot at the upper price band.
func minInvestment(amount, lot *int, priceHigh *float64) int {
	if amount != nil {
		return *amount
	}
	if lot != nil && priceHigh != nil && !math.IsNaN(*priceHigh) && !math.IsInf(*priceHigh, 0) {
		return int(math.Round(float64(*lot) * *priceHigh))
	}
	return 0
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func copyCategories(values []models.SubscriptionCategory) []models.SubscriptionCategory {
	out := make([]models.SubscriptionCategory, 0, len(values))
	for _, v := range values {
		out = append(out, models.SubscriptionCategory{
			Category:      v.Category,
			Subscription:  copyFloat(v.Subscription),
			SharesOffered: copyInt64(v.SharesOffered),
		})
	}
	return out
}

func copyFAQs(values []models.FAQ) []models.FAQ {
	out := make([]models.FAQ, 0, len(values))
	return append(out, values...)
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyGrowwDetails(g *models.GrowwDetails) *models.GrowwDetails {
	if g == nil {
		return nil
	}
	return &models.GrowwDetails{
		CompanyName:           copyString(g.CompanyName),
		ShortName:             copyString(g.ShortName),
		LogoURL:               copyString(g.LogoURL),
		About:                 copyString(g.About),
		Website:               copyString(g.Website),
		Exchange:              copyString(g.Exchange),
		OverallSubscription:   copyString(g.OverallSubscription),
		ListingGain:           copyString(g.ListingGain),
		SubscriptionBreakdown: copyCategories(g.SubscriptionBreakdown),
	}
}
