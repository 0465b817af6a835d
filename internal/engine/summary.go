package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summarize returns the one-line description of a day: the holiday name,
// the comma-joined item names, or "No menu".
func Summarize(day DayRecord) string {
	if day.IsHoliday {
		return day.HolidayName
	}
	if len(day.MenuItems) == 0 {
		return config.SummaryNoMenu
	}
	names := make([]string, 0, len(day.MenuItems))
	for _, it := range day.MenuItems {
		names = append(names, it.Name)
	}
	return strings.Join(names, config.SummarySeparator)
}

// SummaryFor returns the summary of the day matching key, or "No menu".
func SummaryFor(days []DayRecord, key string) string {
	day, ok := FindDay(days, key)
	if !ok {
		return config.SummaryNoMenu
	}
	if day.MenuSummary != "" {
		return day.MenuSummary
	}
	return Summarize(day)
}

// MergeDays flattens several week windows into one list ordered by date.
// The first record seen for a date wins.
func MergeDays(weeks ...[]DayRecord) []DayRecord {
	seen := make(map[string]struct{})
	out := []DayRecord{}
	for _, week := range weeks {
		for _, d := range week {
			if _, dup := seen[d.Date]; dup {
				continue
			}
			seen[d.Date] = struct{}{}
			out = append(out, d)
		}
	}

	// YYYY-MM-DD keys sort chronologically as strings.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// StateValue is the entity's state for the day matching key: the holiday
// name, "N Entrees Available" or "No Entrees/Weekend". Only the first
// configured category is counted, by exact match.
func StateValue(days []DayRecord, key string, categories []string) string {
	day, ok := FindDay(days, key)
	if !ok {
		return config.StateUnknown
	}
	if day.IsHoliday {
		return day.HolidayName
	}

	primary := config.DefaultCategory
	if len(categories) > 0 {
		primary = strings.ToLower(categories[0])
	}
	label := cases.Title(language.English).String(primary)

	n := 0
	for _, it := range day.MenuItems {
		if strings.ToLower(it.Category) == primary {
			n++
		}
	}
	if n == 0 {
		return fmt.Sprintf(config.StateNoItems, label)
	}
	return fmt.Sprintf(config.StateItemsAvailable, n, label)
}
