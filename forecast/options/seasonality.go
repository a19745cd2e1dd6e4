package options

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/util"
	"github.com/aouyang1/demandcast/timedataset"
)

// Automatic seasonality orders and periods for daily demand series.
const (
	DefaultYearlyOrders = 10
	DefaultWeeklyOrders = 3
	DefaultDailyOrders  = 4

	YearlyPeriod = time.Duration(365.25 * 24 * float64(time.Hour))
	WeeklyPeriod = 7 * 24 * time.Hour
	DailyPeriod  = 24 * time.Hour
)

// SeasonalityOptions configures the number of seasonality components to fit for. With Auto
// set the yearly, weekly and daily configs are chosen from the span and frequency of the
// training data on fit and any explicit configs are kept alongside them.
type SeasonalityOptions struct {
	Auto               bool                `json:"auto"`
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	rows := make([][]string, 0, len(s.SeasonalityConfigs))
	for _, cfg := range s.SeasonalityConfigs {
		rows = append(rows, []string{cfg.Name, cfg.Period.String(), strconv.Itoa(cfg.Orders)})
	}
	return util.Table(w, prefix, indent, indentGrowth, "Seasonality", []string{"Name", "Period", "Orders"}, rows)
}

// NewDefaultSeasonalityOptions generates a seasonality config that detects yearly, weekly and
// daily seasonality from the training data
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		Auto: true,
	}
}

// Resolve returns the seasonality configs to fit for the training times. Automatic detection
// enables yearly seasonality with at least two years of history, weekly seasonality with at
// least two weeks of history sampled more often than weekly and daily seasonality with at
// least two days of history sampled more often than daily.
func (s SeasonalityOptions) Resolve(t []time.Time) SeasonalityOptions {
	res := SeasonalityOptions{
		SeasonalityConfigs: make([]SeasonalityConfig, len(s.SeasonalityConfigs)),
	}
	copy(res.SeasonalityConfigs, s.SeasonalityConfigs)

	if s.Auto && len(t) > 1 {
		ts := timedataset.TimeSlice(t)
		span := ts.EndTime().Sub(ts.StartTime())
		freq, err := ts.EstimateFreq()
		if err != nil {
			freq = span
		}

		if span >= 2*YearlyPeriod {
			res.SeasonalityConfigs = append(res.SeasonalityConfigs, NewYearlySeasonalityConfig(DefaultYearlyOrders))
		}
		if span >= 2*WeeklyPeriod && freq < WeeklyPeriod {
			res.SeasonalityConfigs = append(res.SeasonalityConfigs, NewWeeklySeasonalityConfig(DefaultWeeklyOrders))
		}
		if span >= 2*DailyPeriod && freq < DailyPeriod {
			res.SeasonalityConfigs = append(res.SeasonalityConfigs, NewDailySeasonalityConfig(DefaultDailyOrders))
		}
	}
	res.removeDuplicates()
	return res
}

// removeDuplicates keeps a single valid config per period, preferring the most orders, and
// sorts the configs by increasing period.
func (s *SeasonalityOptions) removeDuplicates() {
	slices.SortFunc(s.SeasonalityConfigs, func(a, b SeasonalityConfig) int {
		return cmp.Or(
			cmp.Compare(a.Period, b.Period),
			cmp.Compare(b.Orders, a.Orders),
			strings.Compare(a.Name, b.Name),
		)
	})
	var kept []SeasonalityConfig
	for _, cfg := range s.SeasonalityConfigs {
		if !cfg.valid() {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].Period == cfg.Period {
			continue
		}
		kept = append(kept, cfg)
	}
	s.SeasonalityConfigs = kept
}

// GenerateFeatures generates the sine and cosine fourier series of every configured seasonality
// over the epoch seconds.
func (s SeasonalityOptions) GenerateFeatures(epoch []float64) *feature.Set {
	x := feature.NewSet()
	for _, seasCfg := range s.SeasonalityConfigs {
		x.Update(generateFourierOrders(epoch, seasCfg.Orders, seasCfg.Period, seasCfg.Name))
	}
	return x
}

func generateFourierOrders(epoch []float64, orders int, periodDur time.Duration, label string) *feature.Set {
	period := periodDur.Seconds()

	x := feature.NewSet()
	for order := 1; order <= orders; order++ {
		sinFeat := feature.NewSeasonality(label, feature.FourierCompSin, order)
		cosFeat := feature.NewSeasonality(label, feature.FourierCompCos, order)
		x.Set(sinFeat, sinFeat.Generate(epoch, order, period))
		x.Set(cosFeat, cosFeat.Generate(epoch, order, period))
	}
	return x
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 7 days
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 7 days and order 2 will have a period of 3.5 days.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

func (c SeasonalityConfig) valid() bool {
	return c.Name != "" && c.Period > 0 && c.Orders > 0
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, YearlyPeriod, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, WeeklyPeriod, orders)
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, DailyPeriod, orders)
}
