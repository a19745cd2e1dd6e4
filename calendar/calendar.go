// Package calendar derives calendar and holiday exogenous features from a date index.
package calendar

import (
	"fmt"
	"time"

	"github.com/aouyang1/demandcast/holiday"
	"github.com/aouyang1/demandcast/timedataset"
)

// Derived feature column names.
const (
	DayOfWeek  = "day_of_week"
	Month      = "month"
	DayOfMonth = "day_of_month"
	Holiday    = "holiday"
)

// Columns lists the derived feature columns in output order.
var Columns = []string{DayOfWeek, Month, DayOfMonth, Holiday}

// Deriver derives calendar features using a holiday calendar for the holiday flag.
type Deriver struct {
	holidays *holiday.Calendar
}

// NewDeriver creates a feature deriver. A nil calendar uses the Rio Grande do Norte calendar.
func NewDeriver(holidays *holiday.Calendar) *Deriver {
	if holidays == nil {
		holidays = holiday.RioGrandeDoNorteCalendar()
	}
	return &Deriver{holidays: holidays}
}

var defaultDeriver = NewDeriver(nil)

// DeriveFeatures derives day_of_week (Monday is 0), month, day_of_month and a Rio Grande do
// Norte public holiday flag for each date. Dates must be non-empty and strictly increasing.
func DeriveFeatures(dates []time.Time) (*timedataset.Frame, error) {
	return defaultDeriver.Derive(dates)
}

// Derive derives the calendar features of each date. The output frame has the same index as
// the input dates.
func (d *Deriver) Derive(dates []time.Time) (*timedataset.Frame, error) {
	frame, err := timedataset.NewFrame(dates)
	if err != nil {
		return nil, fmt.Errorf("unable to derive features, %w", err)
	}

	n := len(dates)
	dow := make([]float64, n)
	month := make([]float64, n)
	dom := make([]float64, n)
	hol := make([]float64, n)

	// enumerate the holidays of every year spanned by the dates once, then test membership
	holidays := make(map[time.Time]struct{})
	start := timedataset.TruncateDay(dates[0])
	end := timedataset.TruncateDay(dates[n-1])
	for _, day := range d.holidays.Between(start, end) {
		holidays[day.Date] = struct{}{}
	}

	for i, t := range dates {
		dow[i] = float64(WeekdayIndex(t.Weekday()))
		month[i] = float64(t.Month())
		dom[i] = float64(t.Day())
		if _, exists := holidays[timedataset.TruncateDay(t)]; exists {
			hol[i] = 1
		}
	}

	for i, col := range [][]float64{dow, month, dom, hol} {
		if err := frame.AddColumn(Columns[i], col); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// WeekdayIndex maps a weekday to 0 for Monday through 6 for Sunday.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
