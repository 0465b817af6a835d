package host

import (
	"time"

	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

var demoRotation = [][]engine.MenuItem{
	{
		{Category: "entree", Name: "Cheese Pizza", Description: "<p>Whole grain crust, <b>mozzarella</b></p>"},
		{Category: "vegetable", Name: "Steamed Broccoli"},
		{Category: "fruit", Name: "Apple Slices"},
		{Category: "milk", Name: "1% Milk"},
	},
	{
		{Category: "entree", Name: "Chicken Tacos"},
		{Category: "entree", Name: "Bean & Cheese Burrito"},
		{Category: "vegetable", Name: "Corn"},
		{Category: "grain", Name: "Spanish Rice"},
	},
	{
		{Category: "entree", Name: "Turkey Sandwich"},
		{Category: "fruit", Name: "Orange Wedges"},
		{Category: "condiment", Name: "Ranch"},
	},
	{
		{Category: "entree", Name: "Spaghetti & Meatballs"},
		{Category: "vegetable", Name: "Garden Salad"},
		{Category: "grain", Name: "Garlic Breadstick"},
	},
	{
		{Category: "entree", Name: "Fish Sticks"},
		{Category: "vegetable", Name: "Green Beans"},
		{Category: "fruit", Name: "Pineapple"},
	},
}

// DemoAttributes builds a plausible window around the clock's date: the
// previous, current and next weeks fetched separately and merged the way the
// upstream sensor does, with empty weekends and one holiday.
func DemoAttributes(clock engine.Clock, days int) engine.Attributes {
	today := engine.CursorAt(clock.Now())
	offset := (int(today.Weekday()) + 6) % 7 // days since Monday
	start := today.AddDays(-offset - 7)

	day := func(i int) engine.DayRecord {
		c := start.AddDays(i)
		rec := engine.DayRecord{Date: c.Key(), MenuItems: []engine.MenuItem{}}

		switch wd := c.Weekday(); {
		case wd == time.Saturday || wd == time.Sunday:
		case i == days-3:
			// Friday of the last week is a staff day.
			rec.IsHoliday = true
			rec.HolidayName = "Staff Development Day"
		default:
			rec.MenuItems = demoRotation[(int(wd)-1)%len(demoRotation)]
			rec.HasMenu = true
		}
		rec.MenuSummary = engine.Summarize(rec)
		return rec
	}

	// Each weekly fetch also returns the following Monday, so consecutive
	// windows overlap by one day.
	window := func(from, to int) []engine.DayRecord {
		to = min(to, days)
		records := make([]engine.DayRecord, 0, max(to-from, 0))
		for i := from; i < to; i++ {
			records = append(records, day(i))
		}
		return records
	}
	previous := window(0, 8)
	current := window(7, 15)
	next := window(14, days)

	return engine.Attributes{
		Days:       engine.MergeDays(previous, current, next),
		Categories: []string{"entree"},
		District:   "demo",
		SchoolName: "demo-elementary",
		MealType:   "lunch",
	}
}
