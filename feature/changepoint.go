package feature

type ChangepointComp string

const (
	ChangepointCompBias  ChangepointComp = "bias"
	ChangepointCompSlope ChangepointComp = "slope"
)

// Changepoint feature representing a point in time where the trend may jump (bias) or change
// its rate (slope).
type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return "chpnt_" + c.Name + "_" + string(c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	return labelValue(c, label)
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	return map[string]string{
		"name":                  c.Name,
		"changepoint_component": string(c.ChangepointComp),
	}
}

func (c *Changepoint) UnmarshalJSON(data []byte) error {
	labels, err := decodeLabels(data, FeatureTypeChangepoint)
	if err != nil {
		return err
	}
	c.Name = labels["name"]
	c.ChangepointComp = ChangepointComp(labels["changepoint_component"])
	return nil
}

// Generate returns the changepoint feature at each time point given the changepoint location
// in the same unit. Bias is a step up to 1 at the changepoint and slope is a hinge growing
// linearly from it.
func (c Changepoint) Generate(t []float64, chpt float64) []float64 {
	res := make([]float64, len(t))
	for i, v := range t {
		if v < chpt {
			continue
		}
		switch c.ChangepointComp {
		case ChangepointCompBias:
			res[i] = 1.0
		case ChangepointCompSlope:
			res[i] = v - chpt
		}
	}
	return res
}
