package models

// RawIPO is the flat (v1) IPO record as served by the IPO backend's
// active-with-gmp endpoint. Every optional column is a pointer so that an
// absent JSON field can be told apart from a zero value.
type RawIPO struct {
	ID          string  `json:"id"`
	StockID     *string `json:"stock_id,omitempty"`
	Name        string  `json:"name"`
	CompanyCode string  `json:"company_code"`
	Symbol      *string `json:"symbol,omitempty"`
	Registrar   string  `json:"registrar"`

	OpenDate    *string `json:"open_date,omitempty"`
	CloseDate   *string `json:"close_date,omitempty"`
	ResultDate  *string `json:"result_date,omitempty"`
	ListingDate *string `json:"listing_date,omitempty"`

	PriceBandLow  *float64 `json:"price_band_low,omitempty"`
	PriceBandHigh *float64 `json:"price_band_high,omitempty"`
	IssueSize     *string  `json:"issue_size,omitempty"`
	MinQty        *int     `json:"min_qty,omitempty"`
	MinAmount     *int     `json:"min_amount,omitempty"`

	Status             string  `json:"status"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
	ListingGain        *string `json:"listing_gain,omitempty"`

	LogoURL     *string `json:"logo_url,omitempty"`
	Description *string `json:"description,omitempty"`
	About       *string `json:"about,omitempty"`

	Strengths []string `json:"strengths,omitempty"`
	Risks     []string `json:"risks,omitempty"`

	// GMP columns joined from the ipo_gmp table (nullable)
	GMPValue              *float64 `json:"gmp_value,omitempty"`
	GainPercent           *float64 `json:"gain_percent,omitempty"`
	EstimatedListing      *float64 `json:"estimated_listing,omitempty"`
	GMPLastUpdated        *string  `json:"gmp_last_updated,omitempty"`
	GMPStockID            *string  `json:"gmp_stock_id,omitempty"`
	GMPSubscriptionStatus *string  `json:"gmp_subscription_status,omitempty"`
	GMPListingGain        *string  `json:"gmp_listing_gain,omitempty"`
	GMPIPOStatus          *string  `json:"gmp_ipo_status,omitempty"`
	GMPDataSource         *string  `json:"gmp_data_source,omitempty"`
}

// RawIPOV2 is the nested (v2) IPO record. It carries the same core fields
// plus richer company data, per-year financials and a nested GMP object.
type RawIPOV2 struct {
	ID          string  `json:"id"`
	StockID     *string `json:"stock_id,omitempty"`
	Name        string  `json:"name"`
	CompanyName *string `json:"company_name,omitempty"`
	CompanyCode string  `json:"company_code"`
	Symbol      *string `json:"symbol,omitempty"`
	Registrar   string  `json:"registrar"`
	Category    *string `json:"category,omitempty"`

	OpenDate      *string `json:"open_date,omitempty"`
	CloseDate     *string `json:"close_date,omitempty"`
	AllotmentDate *string `json:"allotment_date,omitempty"`
	ResultDate    *string `json:"result_date,omitempty"`
	ListingDate   *string `json:"listing_date,omitempty"`

	PriceBandLow  *float64 `json:"price_band_low,omitempty"`
	PriceBandHigh *float64 `json:"price_band_high,omitempty"`
	IssueSize     *string  `json:"issue_size,omitempty"`
	LotSize       *int     `json:"lot_size,omitempty"`
	MinQty        *int     `json:"min_qty,omitempty"`
	MinAmount     *int     `json:"min_amount,omitempty"`

	Status             string  `json:"status"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
	ListingGain        *string `json:"listing_gain,omitempty"`

	LogoURL     *string `json:"logo_url,omitempty"`
	Description *string `json:"description,omitempty"`
	About       *string `json:"about,omitempty"`

	Strengths []string `json:"strengths,omitempty"`
	Risks     []string `json:"risks,omitempty"`

	GrowwDetails *GrowwDetails          `json:"groww_details,omitempty"`
	Financials   []RawFinancialMetric   `json:"financials,omitempty"`
	Categories   []SubscriptionCategory `json:"categories,omitempty"`
	FAQs         []FAQ                  `json:"faqs,omitempty"`
	GMP          *RawGMP                `json:"gmp,omitempty"`
}

// GrowwDetails holds the company and subscription data the v2 backend
// attaches from its Groww integration.
type GrowwDetails struct {
	CompanyName           *string                `json:"company_name,omitempty"`
	ShortName             *string                `json:"short_name,omitempty"`
	LogoURL               *string                `json:"logo_url,omitempty"`
	About                 *string                `json:"about,omitempty"`
	Website               *string                `json:"website,omitempty"`
	Exchange              *string                `json:"exchange,omitempty"`
	OverallSubscription   *string                `json:"overall_subscription,omitempty"`
	ListingGain           *string                `json:"listing_gain,omitempty"`
	SubscriptionBreakdown []SubscriptionCategory `json:"subscription_breakdown,omitempty"`
}

// RawFinancialMetric is one financial metric with a value per fiscal year.
// Values are left untyped because the backend mixes numbers and strings.
type RawFinancialMetric struct {
	Title  string                 `json:"title"`
	Yearly map[string]interface{} `json:"yearly"`
}

// SubscriptionCategory is an investor category with its subscription level.
type SubscriptionCategory struct {
	Category      string   `json:"category"`
	Subscription  *float64 `json:"subscription,omitempty"`
	SharesOffered *int64   `json:"shares_offered,omitempty"`
}

// FAQ is a question/answer pair shown on the IPO detail page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RawGMP is the nested grey market premium object of a v2 record.
type RawGMP struct {
	Value              *float64 `json:"value,omitempty"`
	GainPercent        *float64 `json:"gain_percent,omitempty"`
	EstimatedListing   *float64 `json:"estimated_listing,omitempty"`
	LastUpdated        *string  `json:"last_updated,omitempty"`
	SubscriptionStatus *string  `json:"subscription_status,omitempty"`
	ListingGain        *string  `json:"listing_gain,omitempty"`
	DataSource         *string  `json:"data_source,omitempty"`
}
