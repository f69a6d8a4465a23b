package compliance

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the storage and API representation of calendar dates.
	DateLayout = "2006-01-02"

	twoDigitYearCentury = 2000
)

var (
	isoDatePattern  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	dayFirstPattern = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})(?:[/.\-](\d{1,4}))?$`)
)

// ParseIssuanceDate parses user-entered or stored issuance dates.
//
// Accepted forms: yyyy-mm-dd (optionally followed by a time), dd/mm/yyyy and
// dd/mm/yy, with '/', '-' or '.' as separators on the day-first forms.
// Two-digit years expand to 2000+yy. A day and month without a year is
// incomplete and reported as not ok, as is any impossible calendar date.
func ParseIssuanceDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}

	m := dayFirstPattern.FindStringSubmatch(s)
	if m == nil || m[3] == "" {
		return time.Time{}, false
	}

	year := m[3]
	switch len(year) {
	case 2:
		yy, _ := strconv.Atoi(year)
		year = strconv.Itoa(twoDigitYearCentury + yy)
	case 4:
	default:
		return time.Time{}, false
	}
	return buildDate(year, m[2], m[1])
}

// ParseOptionalDate is ParseIssuanceDate for nullable inputs.
func ParseOptionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, ok := ParseIssuanceDate(*raw)
	if !ok {
		return nil
	}
	return &t
}

// FormatDate renders t as yyyy-mm-dd; nil renders as nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// buildDate assembles a date and rejects anything time.Date had to normalize
// (31/02, month 13, ...).
func buildDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return time.Time{}, false
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
