package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-schoolmenu/internal/config"
)

// GenerateCalendar renders the published days as an iCalendar feed.
// Each holiday, and each day with items left after category filtering, becomes
// an all-day event. Days with nothing to show are skipped.
func GenerateCalendar(days []DayRecord, cfg CardConfig, attrs *Attributes, clock Clock) ([]byte, int, error) {
	cal := ical.NewCalendar()

	// Set standard iCalendar headers
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, calendarName(cfg))
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: the upstream integration refreshes its menus every few hours.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(clock.Now().UTC())

	categories := EffectiveCategories(cfg, attrs)
	loc := clock.Now().Location()

	for _, day := range days {
		c, err := ParseKey(day.Date, loc)
		if err != nil {
			slog.Debug(config.MsgTargetIgnored,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyValue, day.Date)
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, dayUID(cfg.Entity, day.Date))

		if day.IsHoliday {
			event.Props.SetText(config.PropSummary, day.HolidayName)
			event.Props.SetText(config.PropCategories, config.ICalCategoryHoliday)
		} else {
			items := FilterItems(day.MenuItems, categories)
			if !day.HasMenu || len(items) == 0 {
				continue
			}
			event.Props.SetText(config.PropSummary, Summarize(DayRecord{MenuItems: items}))
			event.Props.SetText(config.PropDescription, describe(items))
			event.Props.SetText(config.PropCategories, config.ICalCategoryMenu)
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(c.Time())
		event.Props.Set(dtStartProp)
		event.Props.Set(dtStampProp)

		cal.Children = append(cal.Children, event.Component)
	}

	// An empty feed is still a valid VCALENDAR for subscribed clients.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgCalendarBuilt,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyEntity, cfg.Entity,
		config.LogKeyEvents, len(cal.Children))
	return buf.Bytes(), len(cal.Children), nil
}

func calendarName(cfg CardConfig) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	return config.ICalCalName
}

// dayUID is deterministic so subscribed clients update events in place.
func dayUID(entity, date string) string {
	input := fmt.Sprintf(config.FormatHashInput, entity, date, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}

func describe(items []MenuItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf(config.ICalDescLine, it.Category, it.Name))
	}
	return strings.Join(lines, "\n")
}
