package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/demandcast/forecast"
)

// Model is the summary of a fitted forecaster with the series and uncertainty models
type Model struct {
	Options     *Options       `json:"options"`
	Series      forecast.Model `json:"series_model"`
	Uncertainty forecast.Model `json:"uncertainty_model"`
}

// TablePrint writes a human readable summary of both models
func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Series:"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "  ", "  "); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "Uncertainty:"); err != nil {
		return err
	}
	if err := m.Uncertainty.TablePrint(w, "  ", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
