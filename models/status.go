package models

// IPOStatus is the canonical lifecycle status of an IPO.
type IPOStatus string

const (
	IPOStatusLive     IPOStatus = "LIVE"
	IPOStatusUpcoming IPOStatus = "UPCOMING"
	IPOStatusClosed   IPOStatus = "CLOSED"
	IPOStatusListed   IPOStatus = "LISTED"
	IPOStatusUnknown  IPOStatus = "UNKNOWN"
)

// AllotmentStatus is the canonical result of an allotment check.
type AllotmentStatus string

const (
	AllotmentAllotted    AllotmentStatus = "ALLOTTED"
	AllotmentNotAllotted AllotmentStatus = "NOT_ALLOTTED"
	AllotmentPending     AllotmentStatus = "PENDING"
	AllotmentNotApplied  AllotmentStatus = "NOT_APPLIED"
)

// IPOCategory distinguishes mainboard issues from SME issues.
type IPOCategory string

const (
	CategoryMainboard IPOCategory = "mainboard"
	CategorySME       IPOCategory = "sme"
)
