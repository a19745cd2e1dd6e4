package feature

import (
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth is the base level or the linear trend of a series.
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

func (g Growth) String() string {
	return "growth_" + g.Name
}

// Get returns the value of a label and whether it exists
func (g Growth) Get(label string) (string, bool) {
	return labelValue(g, label)
}

func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

func (g *Growth) UnmarshalJSON(data []byte) error {
	labels, err := decodeLabels(data, FeatureTypeGrowth)
	if err != nil {
		return err
	}
	g.Name = labels["name"]
	return nil
}

// Generate returns the growth feature for each epoch second. Linear growth is scaled so the
// training window spans 0 to 1. Returns nil for an unknown growth or an empty training window.
func (g Growth) Generate(epoch []float64, trainStartTime, trainEndTime time.Time) []float64 {
	switch g.Name {
	case GrowthIntercept:
		res := make([]float64, len(epoch))
		for i := range res {
			res[i] = 1.0
		}
		return res
	case GrowthLinear:
		span := trainEndTime.Sub(trainStartTime).Seconds()
		if span <= 0 {
			return nil
		}
		start := float64(trainStartTime.Unix())
		res := make([]float64, len(epoch))
		for i, e := range epoch {
			res[i] = (e - start) / span
		}
		return res
	}
	return nil
}
