package models

// GMPHistoryPoint is one normalized grey market premium observation.
// Date keeps the source string; ordering is by its parsed timestamp.
type GMPHistoryPoint struct {
	Date           string   `json:"date"`
	GMPValue       float64  `json:"gmpValue"`
	IPOPrice       *float64 `json:"ipoPrice,omitempty"`
	ListingPercent *float64 `json:"listingPercent,omitempty"`
}
