package feature

import (
	"fmt"
	"math"
	"strconv"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Seasonality feature is a single fourier term of a named seasonal cycle.
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	return labelValue(s, label)
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

func (s *Seasonality) UnmarshalJSON(data []byte) error {
	labels, err := decodeLabels(data, FeatureTypeSeasonality)
	if err != nil {
		return err
	}
	order, err := strconv.Atoi(labels["order"])
	if err != nil {
		return fmt.Errorf("invalid seasonality order %q, %w", labels["order"], err)
	}
	s.Name = labels["name"]
	s.FourierComp = FourierComp(labels["fourier_component"])
	s.Order = order
	return nil
}

// Generate returns the fourier term at each time point where time and period share the same
// unit.
func (s Seasonality) Generate(t []float64, order int, period float64) []float64 {
	res := make([]float64, len(t))
	omega := 2.0 * math.Pi * float64(order) / period
	for i, v := range t {
		switch s.FourierComp {
		case FourierCompSin:
			res[i] = math.Sin(omega * v)
		case FourierCompCos:
			res[i] = math.Cos(omega * v)
		}
	}
	return res
}
