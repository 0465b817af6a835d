package engine

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tartampluch/go-schoolmenu/internal/config"
)

// ErrEntityRequired is returned when a card configuration does not name an entity.
var ErrEntityRequired = errors.New(config.ErrEntityRequired)

// MenuItem is a single dish as published by the upstream entity.
type MenuItem struct {
	Category string `json:"category"`
	Name     string `json:"name"`

	// Description may contain markup; the resolver strips it before display.
	Description string `json:"description,omitempty"`

	// Image is an optional absolute URL.
	Image string `json:"image,omitempty"`
}

// DayRecord is the upstream status of one calendar day.
type DayRecord struct {
	Date        string     `json:"date"`
	IsHoliday   bool       `json:"is_holiday"`
	HolidayName string     `json:"holiday_name,omitempty"`
	HasMenu     bool       `json:"has_menu"`
	MenuItems   []MenuItem `json:"menu_items"`
	MenuSummary string     `json:"menu_summary,omitempty"`
}

// Attributes mirrors the state attributes of the upstream menu entity.
// The core only reads them; they are never mutated after decoding.
type Attributes struct {
	// TargetDate is the date the upstream entity wants displayed (YYYY-MM-DD).
	TargetDate string

	// Days is nil when the attribute is absent or is not a JSON array.
	// An empty, non-nil slice means the entity published no days.
	Days []DayRecord

	Categories []string

	District     string
	SchoolName   string
	MealType     string
	TodayMenu    string
	TomorrowMenu string
}

// attributesWire is the JSON shape of Attributes. Days and categories stay raw
// so that a malformed value degrades instead of failing the whole snapshot.
type attributesWire struct {
	TargetDate   string          `json:"target_date,omitempty"`
	Days         json.RawMessage `json:"days,omitempty"`
	Categories   json.RawMessage `json:"categories,omitempty"`
	District     string          `json:"district,omitempty"`
	SchoolName   string          `json:"school_name,omitempty"`
	MealType     string          `json:"meal_type,omitempty"`
	TodayMenu    string          `json:"today_menu,omitempty"`
	TomorrowMenu string          `json:"tomorrow_menu,omitempty"`
}

// UnmarshalJSON decodes entity attributes tolerating malformed days/categories.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var w attributesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Attributes{
		TargetDate:   w.TargetDate,
		District:     w.District,
		SchoolName:   w.SchoolName,
		MealType:     w.MealType,
		TodayMenu:    w.TodayMenu,
		TomorrowMenu: w.TomorrowMenu,
	}

	if isJSONArray(w.Days) {
		var days []DayRecord
		if err := json.Unmarshal(w.Days, &days); err == nil {
			if days == nil {
				days = []DayRecord{}
			}
			a.Days = days
		}
	}

	if isJSONArray(w.Categories) {
		var cats []string
		if err := json.Unmarshal(w.Categories, &cats); err == nil {
			a.Categories = cats
		}
	}
	return nil
}

// MarshalJSON encodes the attributes in the upstream wire format.
func (a Attributes) MarshalJSON() ([]byte, error) {
	w := attributesWire{
		TargetDate:   a.TargetDate,
		District:     a.District,
		SchoolName:   a.SchoolName,
		MealType:     a.MealType,
		TodayMenu:    a.TodayMenu,
		TomorrowMenu: a.TomorrowMenu,
	}
	if a.Days != nil {
		raw, err := json.Marshal(a.Days)
		if err != nil {
			return nil, err
		}
		w.Days = raw
	}
	if a.Categories != nil {
		raw, err := json.Marshal(a.Categories)
		if err != nil {
			return nil, err
		}
		w.Categories = raw
	}
	return json.Marshal(w)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

// CardConfig is supplied once per card and never changes afterwards.
type CardConfig struct {
	Entity     string   `json:"entity" mapstructure:"entity"`
	Title      string   `json:"title,omitempty" mapstructure:"title"`
	Categories []string `json:"categories,omitempty" mapstructure:"categories"`
}

// Validate rejects a configuration without an entity.
func (c CardConfig) Validate() error {
	if strings.TrimSpace(c.Entity) == "" {
		return ErrEntityRequired
	}
	return nil
}

// StubConfig is the default configuration offered to host tooling.
func StubConfig() CardConfig {
	return CardConfig{
		Entity:     "",
		Title:      config.DefaultTitle,
		Categories: []string{config.DefaultCategory},
	}
}
