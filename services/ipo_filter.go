package services

import (
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
)

// Filter keys accepted by IPOBuckets.ForFilter.
const (
	FilterOngoing  = "ongoing"
	FilterUpcoming = "upcoming"
	FilterAllotted = "allotted"
	FilterListed   = "listed"
)

// IPOBuckets holds the four tab views of an IPO list. The buckets are
// independent filters over the same list, so one IPO whose status and
// dates disagree can appear in several of them.
type IPOBuckets struct {
	Ongoing  []models.DisplayIPO `json:"ongoing"`
	Upcoming []models.DisplayIPO `json:"upcoming"`
	Allotted []models.DisplayIPO `json:"allotted"`
	Listed   []models.DisplayIPO `json:"listed"`
}

// ForFilter returns the bucket for key, defaulting to ongoing.
func (b IPOBuckets) ForFilter(key string) []models.DisplayIPO {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case FilterUpcoming:
		return b.Upcoming
	case FilterAllotted:
		return b.Allotted
	case FilterListed:
		return b.Listed
	default:
		return b.Ongoing
	}
}

// Counts returns the size of each bucket.
func (b IPOBuckets) Counts() map[string]int {
	return map[string]int{
		FilterOngoing:  len(b.Ongoing),
		FilterUpcoming: len(b.Upcoming),
		FilterAllotted: len(b.Allotted),
		FilterListed:   len(b.Listed),
	}
}

// timeline is an IPO's dates resolved against a reference instant.
// A date is present when its string is non-empty; comparisons on a
// present but unparsable date are false.
type timeline struct {
	now time.Time

	hasOpen, hasClose, hasListing bool
	open, close, listing          *time.Time
}

func newTimeline(dates models.IPODates, now time.Time) timeline {
	t := timeline{now: now}
	t.hasOpen, t.open = resolveDate(dates.Open, now.Location())
	t.hasClose, t.close = resolveDate(dates.Close, now.Location())
	t.hasListing, t.listing = resolveDate(dates.Listing, now.Location())
	return t
}

func resolveDate(value *string, loc *time.Location) (bool, *time.Time) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return false, nil
	}
	parsed, ok := ParseFlexibleTime(*value, loc)
	if !ok {
		return true, nil
	}
	return true, &parsed
}

func before(a, b *time.Time) bool {
	return a != nil && b != nil && a.Before(*b)
}

func notBefore(a, b *time.Time) bool {
	return a != nil && b != nil && !a.Before(*b)
}

func (t timeline) isOngoing(status models.IPOStatus) bool {
	now := &t.now
	if status == models.IPOStatusLive {
		return true
	}
	if t.hasOpen && t.hasClose && notBefore(now, t.open) && notBefore(t.close, now) {
		return true
	}
	return status == models.IPOStatusClosed && (!t.hasClose || notBefore(t.close, now))
}

func (t timeline) isUpcoming(status models.IPOStatus) bool {
	return status == models.IPOStatusUpcoming || (t.hasOpen && before(&t.now, t.open))
}

// isAllotted evaluates the closed/allotted rules in their established order.
// The rules overlap; they are kept as written rather than merged.
func (t timeline) isAllotted(status models.IPOStatus) bool {
	now := &t.now
	if t.hasClose && t.hasListing && before(t.close, now) && before(now, t.listing) {
		return true
	}
	if t.hasClose && before(t.close, now) && (status == models.IPOStatusClosed || !t.hasListing) {
		return true
	}
	if status == models.IPOStatusClosed && t.hasClose && before(t.close, now) {
		return true
	}
	return false
}

func (t timeline) isListed(status models.IPOStatus) bool {
	return status == models.IPOStatusListed || (t.hasListing && notBefore(&t.now, t.listing))
}

// FilterIPOs partitions ipos into the four tab buckets as of now. Input
// order is kept within each bucket and every bucket is non-nil.
func FilterIPOs(ipos []models.DisplayIPO, now time.Time) IPOBuckets {
	buckets := IPOBuckets{
		Ongoing:  []models.DisplayIPO{},
		Upcoming: []models.DisplayIPO{},
		Allotted: []models.DisplayIPO{},
		Listed:   []models.DisplayIPO{},
	}

	for _, ipo := range ipos {
		t := newTimeline(ipo.Dates, now)
		if t.isOngoing(ipo.Status) {
			buckets.Ongoing = append(buckets.Ongoing, ipo)
		}
		if t.isUpcoming(ipo.Status) {
			buckets.Upcoming = append(buckets.Upcoming, ipo)
		}
		if t.isAllotted(ipo.Status) {
			buckets.Allotted = append(buckets.Allotted, ipo)
		}
		if t.isListed(ipo.Status) {
			buckets.Listed = append(buckets.Listed, ipo)
		}
	}

	return buckets
}
