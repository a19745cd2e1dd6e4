package options

import (
	"io"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/util"
	"github.com/aouyang1/demandcast/holiday"
	"github.com/aouyang1/demandcast/timedataset"
)

// HolidayOptions models a separate one day effect per holiday of a calendar. Only holidays
// that occur within the training window are modelled since the others cannot be fit.
type HolidayOptions struct {
	Enabled bool `json:"enabled"`

	// Names of the holidays modelled, resolved on fit
	Names []string `json:"names"`

	Calendar *holiday.Calendar `json:"-"`
}

// NewDefaultHolidayOptions models the Brazil national public holidays
func NewDefaultHolidayOptions() HolidayOptions {
	return HolidayOptions{
		Enabled:  true,
		Calendar: holiday.BrazilCalendar(),
	}
}

func (h HolidayOptions) calendar() *holiday.Calendar {
	if h.Calendar == nil {
		return holiday.BrazilCalendar()
	}
	return h.Calendar
}

// Resolve returns the holiday options with the names of the holidays falling on one of the
// training days.
func (h HolidayOptions) Resolve(t []time.Time) HolidayOptions {
	res := HolidayOptions{
		Enabled:  h.Enabled,
		Calendar: h.Calendar,
	}
	if !h.Enabled || len(t) == 0 {
		return res
	}

	onDay := h.holidaysByDay(t)
	seen := make(map[string]struct{})
	for _, tPnt := range t {
		name, exists := onDay[timedataset.TruncateDay(tPnt)]
		if !exists {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
	}

	// keep the calendar ordering for a stable feature layout
	for _, name := range h.calendar().Names() {
		if _, exists := seen[name]; exists {
			res.Names = append(res.Names, name)
		}
	}
	return res
}

func (h HolidayOptions) holidaysByDay(t []time.Time) map[time.Time]string {
	ts := timedataset.TimeSlice(t)
	onDay := make(map[time.Time]string)
	for _, day := range h.calendar().Between(ts.StartTime(), ts.EndTime()) {
		onDay[day.Date] = day.Name
	}
	return onDay
}

// GenerateFeatures generates an indicator per resolved holiday name that is 1 on the day of
// the holiday.
func (h HolidayOptions) GenerateFeatures(t []time.Time) *feature.Set {
	feat := feature.NewSet()
	if !h.Enabled || len(h.Names) == 0 || len(t) == 0 {
		return feat
	}

	onDay := h.holidaysByDay(t)
	nameOf := func(tPnt time.Time) (string, bool) {
		name, exists := onDay[timedataset.TruncateDay(tPnt)]
		return name, exists
	}
	for _, name := range h.Names {
		event := feature.NewEvent(name)
		feat.Set(event, event.Generate(t, nameOf))
	}
	return feat
}

func (h HolidayOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	var rows [][]string
	if h.Enabled {
		for _, name := range h.Names {
			rows = append(rows, []string{name})
		}
	}
	return util.Table(w, prefix, indent, indentGrowth, "Holidays", []string{"Name"}, rows)
}
