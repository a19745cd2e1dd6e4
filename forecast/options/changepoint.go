package options

import (
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/util"
)

const (
	DefaultAutoNumChangepoints = 25
	DefaultChangepointRange    = 0.8
)

// Changepoint describes a point in time where the trend is allowed to change its rate.
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the piecewise linear trend. With Auto set, AutoNumChangepoints
// are evenly placed over the first Range fraction of the training observations on fit,
// replacing any explicit changepoints.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	rows := make([][]string, 0, len(c.Changepoints))
	for _, chpt := range c.Changepoints {
		rows = append(rows, []string{chpt.Name, chpt.T.Format(time.DateOnly)})
	}
	return util.Table(w, prefix, indent, indentGrowth, "Changepoints", []string{"Name", "Date"}, rows)
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
	}
}

// Resolve returns the changepoints to fit for the sorted training times. Explicit changepoints
// outside of the training window are dropped since they cannot be fit.
func (c ChangepointOptions) Resolve(t []time.Time) ChangepointOptions {
	res := ChangepointOptions{
		AutoNumChangepoints: c.AutoNumChangepoints,
		Range:               c.Range,
	}
	if len(t) < 2 {
		return res
	}
	if c.Auto {
		res.Changepoints = c.GenerateAutoChangepoints(t)
		return res
	}

	start, end := t[0], t[len(t)-1]
	for _, chpt := range c.Changepoints {
		if !chpt.T.After(start) || !chpt.T.Before(end) {
			continue
		}
		res.Changepoints = append(res.Changepoints, chpt)
	}
	return res
}

// GenerateAutoChangepoints places changepoints on evenly spaced training observations within
// the first Range fraction of the history. Fewer changepoints are placed when there are not
// enough observations.
func (c ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	n := c.AutoNumChangepoints
	if n <= 0 {
		n = DefaultAutoNumChangepoints
	}
	chptRange := c.Range
	if chptRange <= 0 || chptRange > 1 {
		chptRange = DefaultChangepointRange
	}

	histSize := int(math.Floor(float64(len(t)) * chptRange))
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	chpts := make([]Changepoint, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(step * float64(i)))
		chpts = append(chpts, NewChangepoint("auto_"+strconv.Itoa(i-1), t[idx]))
	}
	return chpts
}

// GenerateFeatures generates a slope hinge per changepoint over the growth feature which spans
// 0 to 1 across the training window.
func (c ChangepointOptions) GenerateFeatures(growth []float64, trainStartTime, trainEndTime time.Time) *feature.Set {
	feat := feature.NewSet()
	span := trainEndTime.Sub(trainStartTime).Seconds()
	if span <= 0 {
		return feat
	}
	for i, chpt := range c.Changepoints {
		chpntName := strconv.Itoa(i)
		if chpt.Name != "" {
			chpntName = chpt.Name
		}
		loc := chpt.T.Sub(trainStartTime).Seconds() / span
		chpntSlope := feature.NewChangepoint(chpntName, feature.ChangepointCompSlope)
		feat.Set(chpntSlope, chpntSlope.Generate(growth, loc))
	}
	return feat
}
