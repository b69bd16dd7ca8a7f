package services

import (
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/models"
)

var ipoStatusAliases = map[string]models.IPOStatus{
	"ACTIVE":   models.IPOStatusLive,
	"ONGOING":  models.IPOStatusLive,
	"LIVE":     models.IPOStatusLive,
	"UPCOMING": models.IPOStatusUpcoming,
	"CLOSED":   models.IPOStatusClosed,
	"LISTED":   models.IPOStatusListed,
}

// NormalizeStatus maps a free-form backend status to a canonical IPOStatus.
// Unknown or empty values become UNKNOWN.
func NormalizeStatus(raw string) models.IPOStatus {
	if status, ok := ipoStatusAliases[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return status
	}
	return models.IPOStatusUnknown
}

var allotmentStatuses = map[string]models.AllotmentStatus{
	string(models.AllotmentAllotted):    models.AllotmentAllotted,
	string(models.AllotmentNotAllotted): models.AllotmentNotAllotted,
	string(models.AllotmentPending):     models.AllotmentPending,
	string(models.AllotmentNotApplied):  models.AllotmentNotApplied,
}

// MapAllotmentStatus maps a registrar result code to a canonical
// AllotmentStatus. Registrar vocabularies drift, so any unrecognised
// code is reported as PENDING rather than a false positive or negative.
func MapAllotmentStatus(raw string) models.AllotmentStatus {
	if status, ok := allotmentStatuses[strings.ToUpper(raw)]; ok {
		return status
	}
	return models.AllotmentPending
}
