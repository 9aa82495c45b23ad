package adif

import (
	"strconv"
	"strings"
	"time"

	"nextlog-sync-server/internal/domain"
)

// Tolerance applied to the timestamp comparison, inclusive on the
// boundary.
const matchTolerance = 5 * time.Minute

// Match reconciles decoded confirmations against candidate contacts.
// Per confirmation: candidates must agree on callsign
// (case-insensitive, exact) and land within the tolerance window of
// the confirmation's composed timestamp. Each survivor yields one
// result: confirmed, downgraded to partial when band or mode are both
// present on the two sides yet disagree case-insensitively. The
// matcher never emits mismatch; that verdict is reserved for callers
// with additional context. Confirmations with no surviving candidate
// produce nothing.
//
// The confirmation timestamp is composed in the process-local
// calendar, not normalized to UTC. Contact datetimes are absolute
// instants, so both sides meet in the same naive space the report was
// generated in.
func Match(confirmations []domain.Confirmation, contacts []*domain.Contact) []domain.MatchResult {
	var results []domain.MatchResult

	for i := range confirmations {
		conf := &confirmations[i]

		confTime, ok := composeTimestamp(conf.QSODate, conf.TimeOn)
		if !ok {
			continue
		}

		for _, contact := range contacts {
			if !strings.EqualFold(contact.Callsign, conf.Call) {
				continue
			}

			diff := contact.Datetime.Sub(confTime)
			if diff < 0 {
				diff = -diff
			}
			if diff > matchTolerance {
				continue
			}

			results = append(results, domain.MatchResult{
				Contact:      contact,
				Confirmation: conf,
				Verdict:      verdict(contact, conf),
			})
		}
	}

	return results
}

func verdict(contact *domain.Contact, conf *domain.Confirmation) domain.Verdict {
	v := domain.VerdictConfirmed

	if contact.Band != "" && conf.Band != "" && !strings.EqualFold(contact.Band, conf.Band) {
		v = domain.VerdictPartial
	}
	if contact.Mode != "" && conf.Mode != "" && !strings.EqualFold(contact.Mode, conf.Mode) {
		v = domain.VerdictPartial
	}

	return v
}

// composeTimestamp builds a local-calendar time from the 8-digit date
// and 6-digit time stamps carried by a confirmation.
func composeTimestamp(qsoDate, timeOn string) (time.Time, bool) {
	if len(qsoDate) != 8 || len(timeOn) != 6 {
		return time.Time{}, false
	}

	year, err1 := strconv.Atoi(qsoDate[0:4])
	month, err2 := strconv.Atoi(qsoDate[4:6])
	day, err3 := strconv.Atoi(qsoDate[6:8])
	hour, err4 := strconv.Atoi(timeOn[0:2])
	minute, err5 := strconv.Atoi(timeOn[2:4])
	second, err6 := strconv.Atoi(timeOn[4:6])

	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), true
}
