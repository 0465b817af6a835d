package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/tartampluch/go-schoolmenu/internal/config"
)

// Kind tags the mutually exclusive display states of a card.
type Kind int

const (
	KindMissingEntity Kind = iota
	KindLoading
	KindDayNotFound
	KindHoliday
	KindWeekendEmpty
	KindNoMenu
	KindFilteredEmpty
	KindItems
)

var kindNames = [...]string{
	KindMissingEntity: "missing_entity",
	KindLoading:       "loading",
	KindDayNotFound:   "day_not_found",
	KindHoliday:       "holiday",
	KindWeekendEmpty:  "weekend_empty",
	KindNoMenu:        "no_menu",
	KindFilteredEmpty: "filtered_empty",
	KindItems:         "items",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText lets outcomes serialize with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the resolved display state for one cursor date.
// HolidayName is set for KindHoliday, Items for KindItems.
type Outcome struct {
	Kind        Kind       `json:"kind"`
	CursorKey   string     `json:"cursor_key"`
	HolidayName string     `json:"holiday_name,omitempty"`
	Items       []MenuItem `json:"items,omitempty"`
}

var markupRe = regexp.MustCompile(config.MarkupPattern)

// Resolve selects what a card shows for cursorKey. It is a pure function of
// its inputs; absent or malformed data maps to an outcome, never to an error.
func Resolve(entityPresent bool, attrs *Attributes, cursorKey string, cfg CardConfig) Outcome {
	out := Outcome{CursorKey: cursorKey}

	if !entityPresent {
		out.Kind = KindMissingEntity
		return out
	}

	if attrs == nil || attrs.Days == nil {
		out.Kind = KindLoading
		return out
	}

	day, ok := FindDay(attrs.Days, cursorKey)
	if !ok {
		out.Kind = KindDayNotFound
		return out
	}

	if day.IsHoliday {
		out.Kind = KindHoliday
		out.HolidayName = day.HolidayName
		return out
	}

	if !day.HasMenu && isWeekend(cursorKey) {
		out.Kind = KindWeekendEmpty
		return out
	}

	if !day.HasMenu || len(day.MenuItems) == 0 {
		out.Kind = KindNoMenu
		return out
	}

	items := FilterItems(day.MenuItems, EffectiveCategories(cfg, attrs))
	if len(items) == 0 {
		out.Kind = KindFilteredEmpty
		return out
	}

	for i := range items {
		items[i].Description = StripMarkup(items[i].Description)
	}
	out.Kind = KindItems
	out.Items = items
	return out
}

// FindDay returns the first record whose date equals key.
func FindDay(days []DayRecord, key string) (DayRecord, bool) {
	for _, d := range days {
		if d.Date == key {
			return d, true
		}
	}
	return DayRecord{}, false
}

// isWeekend computes the weekday from the key's own fields. A calendar date
// has the same weekday in every zone, so UTC keeps it off the process clock.
func isWeekend(key string) bool {
	c, err := ParseKey(key, time.UTC)
	if err != nil {
		return false
	}
	wd := c.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// EffectiveCategories picks the category filter: card config first, then the
// entity's categories, then entree. Entries are lower-cased.
func EffectiveCategories(cfg CardConfig, attrs *Attributes) []string {
	src := cfg.Categories
	if len(src) == 0 && attrs != nil {
		src = attrs.Categories
	}
	if len(src) == 0 {
		src = []string{config.DefaultCategory}
	}

	out := make([]string, len(src))
	for i, c := range src {
		out[i] = strings.ToLower(c)
	}
	return out
}

// FilterItems keeps the items whose category matches an allowed category,
// by case-insensitive substring containment in either direction. Selecting
// "side" or "sides" also admits the SidesAliases. The input is not modified.
func FilterItems(items []MenuItem, allowed []string) []MenuItem {
	lowerAllowed := make([]string, len(allowed))
	hasSides := false
	for i, a := range allowed {
		lowerAllowed[i] = strings.ToLower(a)
		if lowerAllowed[i] == config.SidesCategory || lowerAllowed[i] == config.SidesCategoryP {
			hasSides = true
		}
	}

	var out []MenuItem
	for _, item := range items {
		cat := strings.ToLower(item.Category)
		if matchesAny(cat, lowerAllowed) || (hasSides && matchesAny(cat, config.SidesAliases)) {
			out = append(out, item)
		}
	}
	return out
}

func matchesAny(category string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(category, c) || strings.Contains(c, category) {
			return true
		}
	}
	return false
}

// StripMarkup removes tags from an upstream description.
func StripMarkup(s string) string {
	if s == "" {
		return s
	}
	return markupRe.ReplaceAllString(s, "")
}
