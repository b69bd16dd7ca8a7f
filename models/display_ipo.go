package models

// DisplayIPO is the canonical, display-ready IPO. ID, Name, Registrar,
// Strengths and Risks are always populated (possibly empty, never nil).
// A DisplayIPO is built fresh on every transform and never mutated afterwards.
type DisplayIPO struct {
	ID          string  `json:"id"`
	StockID     *string `json:"stockId,omitempty"`
	Name        string  `json:"name"`
	CompanyName string  `json:"companyName"`
	CompanyCode string  `json:"companyCode"`
	Symbol      *string `json:"symbol,omitempty"`

	PriceRange PriceRange `json:"priceRange"`
	Status     IPOStatus  `json:"status"`
	Dates      IPODates   `json:"dates"`

	LotSize       int         `json:"lotSize"`
	MinInvestment int         `json:"minInvestment"`
	Registrar     string      `json:"registrar"`
	LogoURL       *string     `json:"logoUrl,omitempty"`
	Category      IPOCategory `json:"category"`
	IssueSize     string      `json:"issueSize"`

	SubscriptionStatus string `json:"subscriptionStatus"`
	ListingGain        string `json:"listingGain"`
	Description        string `json:"description"`
	About              string `json:"about"`

	Strengths []string `json:"strengths"`
	Risks     []string `json:"risks"`

	// GMP is nil when the source carried no grey market data at all.
	GMP *GMPInfo `json:"gmp,omitempty"`

	Financials   []FinancialRow         `json:"financials,omitempty"`
	Categories   []SubscriptionCategory `json:"categories"`
	FAQs         []FAQ                  `json:"faqs"`
	GrowwDetails *GrowwDetails          `json:"growwDetails,omitempty"`
}

// PriceRange is the issue price band.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IPODates holds the timeline as ISO date strings.
type IPODates struct {
	Open      *string `json:"open,omitempty"`
	Close     *string `json:"close,omitempty"`
	Allotment *string `json:"allotment,omitempty"`
	Listing   *string `json:"listing,omitempty"`
}

// HasAny reports whether at least one timeline date is set.
func (d IPODates) HasAny() bool {
	return d.Open != nil || d.Close != nil || d.Allotment != nil || d.Listing != nil
}

// GMPInfo is the grey market premium block of a DisplayIPO.
type GMPInfo struct {
	Value              *float64 `json:"value,omitempty"`
	GainPercent        *float64 `json:"gainPercent,omitempty"`
	EstimatedListing   *float64 `json:"estimatedListing,omitempty"`
	LastUpdated        *string  `json:"lastUpdated,omitempty"`
	SubscriptionStatus *string  `json:"subscriptionStatus,omitempty"`
	ListingGain        *string  `json:"listingGain,omitempty"`
	DataSource         *string  `json:"dataSource,omitempty"`
}

// FinancialRow is one fiscal year of pivoted financials.
type FinancialRow struct {
	Year        string   `json:"year"`
	Revenue     *float64 `json:"revenue,omitempty"`
	Profit      *float64 `json:"profit,omitempty"`
	TotalAssets *float64 `json:"totalAssets,omitempty"`
}

// StatusDisplay is the per-IPO badge metadata consumed by the UI.
type StatusDisplay struct {
	Label      string `json:"label"`
	HasDot     bool   `json:"hasDot"`
	DotColor   string `json:"dotColor"`
	IsBlinking bool   `json:"isBlinking"`
	BgColor    string `json:"bgColor"`
	TextColor  string `json:"textColor"`
}

// IPOListItem pairs an IPO with its derived status badge.
type IPOListItem struct {
	IPO           DisplayIPO    `json:"ipo"`
	StatusDisplay StatusDisplay `json:"statusDisplay"`
}
