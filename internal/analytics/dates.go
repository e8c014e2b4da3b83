package analytics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Indonesian month names and the abbreviations the sites use.
var months = map[string]time.Month{
	"jan": time.January, "januari": time.January,
	"feb": time.February, "februari": time.February, "peb": time.February,
	"mar": time.March, "maret": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May, "may": time.May,
	"jun": time.June, "juni": time.June,
	"jul": time.July, "juli": time.July,
	"agu": time.August, "agt": time.August, "ags": time.August, "agustus": time.August, "aug": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October, "oct": time.October,
	"nov": time.November, "november": time.November,
	"des": time.December, "desember": time.December, "dec": time.December,
}

var (
	dayMonthYear = regexp.MustCompile(`(?i)\b(\d{1,2})\s+([a-z]{3,9})\.?\s+(\d{4})\b`)
	slashDate    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	isoDate      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	hasYear      = regexp.MustCompile(`\d{4}`)
)

// ParseDate extracts a calendar day from a date string in whatever form a
// news site rendered it. Slash dates are read day first. The time of day
// is dropped.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2], m[3])
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		if mon, ok := months[strings.ToLower(m[2])]; ok {
			return ymd(m[3], strconv.Itoa(int(mon)), m[1])
		}
	}
	if m := slashDate.FindStringSubmatch(s); m != nil {
		return ymd(m[3], m[2], m[1])
	}

	// Relative stamps like "2 jam yang lalu" or a bare time carry no day.
	if !hasYear.MatchString(s) {
		return time.Time{}, false
	}
	s = strings.NewReplacer(" WIB", "", " WITA", "", " WIT", "").Replace(s)
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func ymd(y, m, d string) (time.Time, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
