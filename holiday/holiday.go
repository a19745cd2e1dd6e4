// Package holiday provides the Brazilian public holiday calendars used to build holiday
// regressors and holiday effects. Holidays are defined with rickar/cal and every enumerated
// year is memoised since the calendars are static.
package holiday

import (
	"errors"
	"slices"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

// DefaultCacheSize is the number of calendar years kept per Calendar.
const DefaultCacheSize = 64

var ErrInvalidCacheSize = errors.New("holiday cache size must be positive")

// public marks a holiday as a public observance, some of the br definitions leave it unset.
var public = &cal.Holiday{Type: cal.ObservancePublic}

// Brazil national public holidays. Carnaval and Corpus Christi are optional points and not
// national holidays.
var (
	NewYear               = br.AnoNovo
	GoodFriday            = br.SextaFeiraSanta
	Tiradentes            = br.Tiradentes.Clone(public)
	LaborDay              = br.Trabalhador
	IndependenceDay       = br.Independencia.Clone(public)
	OurLadyOfAparecida    = br.NossaSenhoraAparecida.Clone(public)
	AllSoulsDay           = br.Finados.Clone(public)
	RepublicDay           = br.Republica.Clone(public)
	BlackConsciousnessDay = br.ConscienciaNegra.Clone(&cal.Holiday{Type: cal.ObservancePublic, StartYear: 2024})
	ChristmasDay          = br.Natal
)

// Rio Grande do Norte state holidays.
var (
	SaintPeterDay = &cal.Holiday{
		Name:  "Dia de Sao Pedro",
		Type:  cal.ObservancePublic,
		Month: time.June,
		Day:   29,
		Func:  cal.CalcDayOfMonth,
	}
	CunhauUruacuMartyrsDay = &cal.Holiday{
		Name:      "Martires de Cunhau e Uruacu",
		Type:      cal.ObservancePublic,
		Month:     time.October,
		Day:       3,
		StartYear: 2007,
		Func:      cal.CalcDayOfMonth,
	}
)

var (
	// Brazil lists the national public holidays.
	Brazil = []*cal.Holiday{
		NewYear,
		GoodFriday,
		Tiradentes,
		LaborDay,
		IndependenceDay,
		OurLadyOfAparecida,
		AllSoulsDay,
		RepublicDay,
		BlackConsciousnessDay,
		ChristmasDay,
	}

	// RioGrandeDoNorte lists the public holidays observed in the state of Rio Grande do Norte,
	// national holidays included.
	RioGrandeDoNorte = slices.Concat(Brazil, []*cal.Holiday{
		SaintPeterDay,
		CunhauUruacuMartyrsDay,
	})
)

// Day is a single holiday occurrence. Date is midnight UTC of the calendar day.
type Day struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}

// Calendar enumerates a fixed set of holidays per year. Enumerated years are cached so
// repeated lookups over the same range do not recompute the holiday rules.
type Calendar struct {
	holidays []*cal.Holiday
	years    *lru.Cache[int, map[dateKey]string]
}

// NewCalendar creates a calendar from a set of holiday rules keeping up to cacheSize
// enumerated years in memory.
func NewCalendar(holidays []*cal.Holiday, cacheSize int) (*Calendar, error) {
	if cacheSize <= 0 {
		return nil, ErrInvalidCacheSize
	}
	years, err := lru.New[int, map[dateKey]string](cacheSize)
	if err != nil {
		return nil, err
	}
	hols := make([]*cal.Holiday, len(holidays))
	copy(hols, holidays)
	return &Calendar{
		holidays: hols,
		years:    years,
	}, nil
}

func mustCalendar(holidays []*cal.Holiday) *Calendar {
	c, err := NewCalendar(holidays, DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	brazilCalendar = mustCalendar(Brazil)
	rnCalendar     = mustCalendar(RioGrandeDoNorte)
)

// BrazilCalendar returns the shared national holiday calendar.
func BrazilCalendar() *Calendar {
	return brazilCalendar
}

// RioGrandeDoNorteCalendar returns the shared Rio Grande do Norte holiday calendar.
func RioGrandeDoNorteCalendar() *Calendar {
	return rnCalendar
}

func (c *Calendar) year(year int) map[dateKey]string {
	if days, exists := c.years.Get(year); exists {
		return days
	}

	days := make(map[dateKey]string, len(c.holidays))
	for _, hol := range c.holidays {
		actual, _ := hol.Calc(year)
		if actual.IsZero() {
			continue
		}
		key := keyOf(actual)
		if _, exists := days[key]; exists {
			continue
		}
		days[key] = hol.Name
	}
	c.years.Add(year, days)
	return days
}

// Year returns every holiday of the given year ordered by date.
func (c *Calendar) Year(year int) []Day {
	days := c.year(year)
	res := make([]Day, 0, len(days))
	for key, name := range days {
		res = append(res, Day{
			Date: time.Date(key.year, key.month, key.day, 0, 0, 0, 0, time.UTC),
			Name: name,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})
	return res
}

// Between returns the holidays falling on the calendar days from start to end inclusive.
func (c *Calendar) Between(start, end time.Time) []Day {
	if end.Before(start) {
		return nil
	}
	startKey := keyOf(start)
	endKey := keyOf(end)
	first := time.Date(startKey.year, startKey.month, startKey.day, 0, 0, 0, 0, time.UTC)
	last := time.Date(endKey.year, endKey.month, endKey.day, 0, 0, 0, 0, time.UTC)

	var res []Day
	for y := startKey.year; y <= endKey.year; y++ {
		for _, d := range c.Year(y) {
			if d.Date.Before(first) || d.Date.After(last) {
				continue
			}
			res = append(res, d)
		}
	}
	return res
}

// Lookup returns the holiday name of the calendar day of t.
func (c *Calendar) Lookup(t time.Time) (string, bool) {
	key := keyOf(t)
	name, exists := c.year(key.year)[key]
	return name, exists
}

// IsHoliday reports whether the calendar day of t is a holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, exists := c.Lookup(t)
	return exists
}

// Names returns the distinct holiday names of the calendar in definition order.
func (c *Calendar) Names() []string {
	names := make([]string, 0, len(c.holidays))
	seen := make(map[string]struct{}, len(c.holidays))
	for _, hol := range c.holidays {
		if _, exists := seen[hol.Name]; exists {
			continue
		}
		seen[hol.Name] = struct{}{}
		names = append(names, hol.Name)
	}
	return names
}
