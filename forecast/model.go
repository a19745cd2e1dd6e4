package forecast

import (
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/options"
	"github.com/aouyang1/demandcast/forecast/util"
	"github.com/goccy/go-json"
)

// Model represents a serializeable summary of a forecast storing the resolved options, fit
// scores, and coefficients
type Model struct {
	TrainStartTime time.Time        `json:"train_start_time"`
	TrainEndTime   time.Time        `json:"train_end_time"`
	Options        *options.Options `json:"options"`
	Scores         *Scores          `json:"scores"`
	Weights        Weights          `json:"weights"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	out := util.NewLines(w, prefix, indent)
	out.Printf(0, "Forecast:")
	out.Printf(1, "Training Window: %s to %s",
		m.TrainStartTime.Format(time.DateOnly), m.TrainEndTime.Format(time.DateOnly))
	if err := out.Err(); err != nil {
		return err
	}

	if opt := m.Options; opt != nil {
		out.Printf(1, "Growth: %s    Regularization: %.3f", opt.GrowthType, opt.Regularization)
		if err := out.Err(); err != nil {
			return err
		}
		for _, section := range []interface {
			TablePrint(io.Writer, string, string, int) error
		}{
			opt.SeasonalityOptions,
			opt.ChangepointOptions,
			opt.HolidayOptions,
			opt.RegressorOptions,
		} {
			if err := section.TablePrint(w, prefix, indent, 1); err != nil {
				return err
			}
		}
	}

	if m.Scores != nil {
		out.Printf(0, "Scores:")
		out.Printf(1, "MAPE: %.3f    MSE: %.3f    R2: %.3f", m.Scores.MAPE, m.Scores.MSE, m.Scores.R2)
	}

	rows, err := m.Weights.rows()
	if err != nil {
		return err
	}
	out.Table(0, "Weights", []string{"Type", "Labels", "Value"}, rows)
	return out.Err()
}

// Weights stores the intercept and coefficients for the forecast model
type Weights struct {
	Intercept float64         `json:"intercept"`
	Coef      []FeatureWeight `json:"coefficients"`
}

// Coefficients returns a slice copy of the coefficients ignoring the intercept.
func (w *Weights) Coefficients() []float64 {
	coef := make([]float64, 0, len(w.Coef))
	for _, fw := range w.Coef {
		coef = append(coef, fw.Value)
	}
	return coef
}

// rows formats the intercept followed by every coefficient. Coefficients shrunk to exactly zero
// are shown as an ellipsis.
func (w Weights) rows() ([][]string, error) {
	rows := [][]string{{"Intercept", "", fmt.Sprintf("%.3f", w.Intercept)}}
	for _, fw := range w.Coef {
		labels, err := json.Marshal(fw.Labels)
		if err != nil {
			return nil, fmt.Errorf("unable to encode %s labels, %w", fw.Type, err)
		}
		val := "..."
		if fw.Value != 0 {
			val = fmt.Sprintf("%.3f", fw.Value)
		}
		rows = append(rows, []string{fw.Type.String(), string(labels), val})
	}
	return rows, nil
}

// FeatureWeight represents a feature described with a type e.g. changepoint, labels and the value
type FeatureWeight struct {
	Labels map[string]string   `json:"labels"`
	Type   feature.FeatureType `json:"type"`
	Value  float64             `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}
