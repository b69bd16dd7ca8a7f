package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
)

// BadgeColor is a dot color with the matching badge background and text.
type BadgeColor struct {
	Dot  string
	Bg   string
	Text string
}

var (
	ColorGreen  = BadgeColor{Dot: "#16A34A", Bg: "#DCFCE7", Text: "#166534"}
	ColorRed    = BadgeColor{Dot: "#DC2626", Bg: "#FEE2E2", Text: "#991B1B"}
	ColorYellow = BadgeColor{Dot: "#EAB308", Bg: "#FEF9C3", Text: "#854D0E"}
	ColorOrange = BadgeColor{Dot: "#EA580C", Bg: "#FFEDD5", Text: "#9A3412"}
	ColorBlue   = BadgeColor{Dot: "#2563EB", Bg: "#DBEAFE", Text: "#1E40AF"}
	ColorGray   = BadgeColor{Dot: "#6B7280", Bg: "#F3F4F6", Text: "#374151"}
)

// MarketCloseHour is the local hour at which bidding on the close date ends.
const MarketCloseHour = 16

func badge(label string, color BadgeColor, hasDot, blinking bool) models.StatusDisplay {
	return models.StatusDisplay{
		Label:      label,
		HasDot:     hasDot,
		DotColor:   color.Dot,
		IsBlinking: blinking,
		BgColor:    color.Bg,
		TextColor:  color.Text,
	}
}

// ClassifyStatus derives the status badge for ipo as of now. Dates without
// a zone are read in now's location.
func ClassifyStatus(ipo models.DisplayIPO, now time.Time) models.StatusDisplay {
	loc := now.Location()

	switch ipo.Status {
	case models.IPOStatusLive:
		closeAt, hasClose := parseOptional(ipo.Dates.Close, loc)
		if !hasClose {
			return badge("Open", ColorGreen, true, true)
		}
		cutoff := atHour(closeAt, loc, MarketCloseHour)
		if !now.Before(cutoff) {
			allotmentAt, hasAllotment := parseOptional(ipo.Dates.Allotment, loc)
			if !hasAllotment || now.Before(allotmentAt) {
				return badge("Closed", ColorRed, true, false)
			}
		}
		return badge(closesInLabel(CalendarDaysUntil(now, closeAt)), ColorGreen, true, true)

	case models.IPOStatusUpcoming:
		openAt, hasOpen := parseOptional(ipo.Dates.Open, loc)
		if !hasOpen {
			return badge("TBA", ColorGray, true, false)
		}
		return badge(opensInLabel(CalendarDaysUntil(now, openAt)), ColorYellow, true, false)

	case models.IPOStatusClosed:
		return badge("CLOSED", ColorOrange, true, false)

	case models.IPOStatusListed:
		return badge("LISTED", ColorBlue, true, false)

	case models.IPOStatusUnknown:
		if !ipo.Dates.HasAny() {
			return badge("TBA", ColorGray, true, false)
		}
		return badge("UPCOMING", ColorYellow, true, false)

	default:
		return badge(string(ipo.Status), ColorGray, false, false)
	}
}

// CalendarDaysUntil counts calendar days from now to target after both are
// truncated to midnight in now's location. Past targets are negative.
func CalendarDaysUntil(now, target time.Time) int {
	loc := now.Location()
	from := midnightUTC(now.In(loc))
	to := midnightUTC(target.In(loc))
	return int(to.Sub(from).Hours() / 24)
}

// midnightUTC maps a wall-clock date onto UTC so day differences ignore
// DST transitions.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func atHour(t time.Time, loc *time.Location, hour int) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}

func parseOptional(value *string, loc *time.Location) (time.Time, bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return time.Time{}, false
	}
	return ParseFlexibleTime(*value, loc)
}

func closesInLabel(days int) string {
	switch {
	case days <= 0:
		return "Closes today"
	case days == 1:
		return "Closes tomorrow"
	default:
		return fmt.Sprintf("Closes in %d days", days)
	}
}

func opensInLabel(days int) string {
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days <= 7:
		return fmt.Sprintf("In %d days", days)
	default:
		weeks := days / 7
		if weeks == 1 {
			return "In 1 week"
		}
		return fmt.Sprintf("In %d weeks", weeks)
	}
}

// WithStatusDisplay pairs each IPO with its badge.
func WithStatusDisplay(ipos []models.DisplayIPO, now time.Time) []models.IPOListItem {
	items := make([]models.IPOListItem, 0, len(ipos))
	for _, ipo := range ipos {
		items = append(items, models.IPOListItem{IPO: ipo, StatusDisplay: ClassifyStatus(ipo, now)})
	}
	return items
}
