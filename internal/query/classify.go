package query

import (
	"regexp"
	"strconv"
	"time"
)

// ClassKind marks what a raw search term denotes.
type ClassKind int

const (
	ClassText ClassKind = iota
	ClassYear
	ClassYearMonth
	ClassDate
	ClassDateTime
	ClassNumeric
)

// Classification is the result of Classify. Exactly one interpretation of
// the term; date components are only meaningful for the date-ish kinds.
type Classification struct {
	Kind   ClassKind
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
	Number int64
	Term   string
}

func (c Classification) IsDateKind() bool {
	switch c.Kind {
	case ClassYear, ClassYearMonth, ClassDate, ClassDateTime:
		return true
	}
	return false
}

var (
	reYear      = regexp.MustCompile(`^\d{4}$`)
	reYearMonth = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	reISODate   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	reEUDate    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reDateTime  = regexp.MustCompile(`^(\S+)[T ](\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	reInteger   = regexp.MustCompile(`^\d+$`)
)

// Classify decides whether a search term denotes a year, a year-month, a
// full date, a datetime, a bare number, or free text. Order matters: a
// 4-digit term is a Year, never Numeric. The function is pure and never
// fails; anything unparseable degrades to Text.
func Classify(term string) Classification {
	if reYear.MatchString(term) {
		y, _ := strconv.Atoi(term)
		return Classification{Kind: ClassYear, Year: y, Term: term}
	}

	if m := reYearMonth.FindStringSubmatch(term); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			return Classification{Kind: ClassYearMonth, Year: y, Month: mo, Term: term}
		}
		return Classification{Kind: ClassText, Term: term}
	}

	if y, mo, d, ok := parseDatePart(term); ok {
		return Classification{Kind: ClassDate, Year: y, Month: mo, Day: d, Term: term}
	}

	if m := reDateTime.FindStringSubmatch(term); m != nil {
		if y, mo, d, ok := parseDatePart(m[1]); ok {
			h, _ := strconv.Atoi(m[2])
			mi, _ := strconv.Atoi(m[3])
			s := 0
			if m[4] != "" {
				s, _ = strconv.Atoi(m[4])
			}
			if h < 24 && mi < 60 && s < 60 {
				return Classification{
					Kind: ClassDateTime,
					Year: y, Month: mo, Day: d,
					Hour: h, Minute: mi, Second: s,
					Term: term,
				}
			}
		}
		return Classification{Kind: ClassText, Term: term}
	}

	if reInteger.MatchString(term) {
		if n, err := strconv.ParseInt(term, 10, 64); err == nil {
			return Classification{Kind: ClassNumeric, Number: n, Term: term}
		}
	}

	return Classification{Kind: ClassText, Term: term}
}

// parseDatePart tries YYYY-MM-DD, YYYY/MM/DD and DD/MM/YYYY. Impossible
// calendar dates are rejected by round-tripping through time.Date.
func parseDatePart(s string) (year, month, day int, ok bool) {
	if m := reISODate.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	} else if m := reEUDate.FindStringSubmatch(s); m != nil {
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
	} else {
		return 0, 0, 0, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return 0, 0, 0, false
	}
	return year, month, day, true
}
