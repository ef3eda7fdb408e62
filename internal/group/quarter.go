package group

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// quarterPattern matches explicit fiscal-quarter markers like 2024Q1.
var quarterPattern = regexp.MustCompile(`(\d{4})Q([1-4])`)

// datePattern matches the YYYYMMDD date stamp embedded in storage keys
// and summary filenames.
var datePattern = regexp.MustCompile(`(\d{8})`)

// PeriodKey orders documents chronologically. Keys compare by year,
// then quarter, then day. Unparseable inputs sort last.
type PeriodKey struct {
	Year    int
	Quarter int
	Day     int
}

// unknownPeriod sorts after every real period.
var unknownPeriod = PeriodKey{Year: 9999, Quarter: 9, Day: 99}

// Less reports whether k sorts before other.
func (k PeriodKey) Less(other PeriodKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Quarter != other.Quarter {
		return k.Quarter < other.Quarter
	}
	return k.Day < other.Day
}

// PeriodOf derives the chronological key for a name, typically a
// storage key or filename. An explicit NNNNQn marker wins over a bare
// YYYYMMDD stamp; a date maps to its calendar quarter with the day of
// month as tiebreaker.
func PeriodOf(name string) PeriodKey {
	if m := quarterPattern.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		quarter, _ := strconv.Atoi(m[2])
		return PeriodKey{Year: year, Quarter: quarter}
	}
	if m := datePattern.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1][:4])
		month, _ := strconv.Atoi(m[1][4:6])
		day, _ := strconv.Atoi(m[1][6:8])
		if month >= 1 && month <= 12 {
			return PeriodKey{Year: year, Quarter: (month-1)/3 + 1, Day: day}
		}
	}
	return unknownPeriod
}

// PeriodLabel renders the human-readable period for a name: the
// quarter (2024年Q1), the year and month (2024年06月), or 不明 when
// neither can be derived.
func PeriodLabel(name string) string {
	if m := quarterPattern.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s年Q%s", m[1], m[2])
	}
	if m := datePattern.FindStringSubmatch(name); m != nil {
		month, _ := strconv.Atoi(m[1][4:6])
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%s年%s月", m[1][:4], m[1][4:6])
		}
	}
	return "不明"
}

// SortByPeriod orders names oldest first, leaving equal keys in their
// original relative order so repeated runs stay deterministic.
func SortByPeriod(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return PeriodOf(names[i]).Less(PeriodOf(names[j]))
	})
}
