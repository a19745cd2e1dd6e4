package options

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/demandcast/feature"
	"github.com/aouyang1/demandcast/forecast/util"
	"github.com/aouyang1/demandcast/timedataset"
	"gonum.org/v1/gonum/stat"
)

var ErrMissingRegressor = errors.New("missing regressor data")

// Regressor is an exogenous column added to the model. Values are standardized with the
// training mean and standard deviation, binary columns are left as is.
type Regressor struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// RegressorOptions lists the exogenous columns to fit alongside the target
type RegressorOptions struct {
	Regressors []Regressor `json:"regressors"`
}

// NewRegressorOptions creates unresolved regressors for the named columns
func NewRegressorOptions(names []string) RegressorOptions {
	regs := make([]Regressor, 0, len(names))
	for _, name := range names {
		regs = append(regs, Regressor{Name: name, Std: 1.0})
	}
	return RegressorOptions{Regressors: regs}
}

// Names returns the regressor column names in order
func (r RegressorOptions) Names() []string {
	names := make([]string, 0, len(r.Regressors))
	for _, reg := range r.Regressors {
		names = append(names, reg.Name)
	}
	return names
}

func isBinary(vals []float64) bool {
	for _, v := range vals {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

// Resolve computes the standardization of each regressor from the training frame.
func (r RegressorOptions) Resolve(frame *timedataset.Frame) (RegressorOptions, error) {
	res := RegressorOptions{Regressors: make([]Regressor, 0, len(r.Regressors))}
	if len(r.Regressors) == 0 {
		return res, nil
	}
	if frame == nil {
		return res, fmt.Errorf("no regressor frame, %w", ErrMissingRegressor)
	}
	for _, reg := range r.Regressors {
		vals, err := frame.Column(reg.Name)
		if err != nil {
			return res, fmt.Errorf("%w, %w", ErrMissingRegressor, err)
		}
		next := Regressor{Name: reg.Name, Mean: 0.0, Std: 1.0}
		if !isBinary(vals) {
			mean, std := stat.MeanStdDev(vals, nil)
			next.Mean = mean
			if std > 0 {
				next.Std = std
			}
		}
		res.Regressors = append(res.Regressors, next)
	}
	return res, nil
}

// GenerateFeatures returns the standardized regressor columns of the frame
func (r RegressorOptions) GenerateFeatures(frame *timedataset.Frame) (*feature.Set, error) {
	feat := feature.NewSet()
	if len(r.Regressors) == 0 {
		return feat, nil
	}
	if frame == nil {
		return nil, fmt.Errorf("no regressor frame, %w", ErrMissingRegressor)
	}
	for _, reg := range r.Regressors {
		vals, err := frame.Column(reg.Name)
		if err != nil {
			return nil, fmt.Errorf("%w, %w", ErrMissingRegressor, err)
		}
		std := reg.Std
		if std == 0 {
			std = 1.0
		}
		data := make([]float64, len(vals))
		for i, v := range vals {
			data[i] = (v - reg.Mean) / std
		}
		feat.Set(feature.NewRegressor(reg.Name), data)
	}
	return feat, nil
}

func (r RegressorOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	rows := make([][]string, 0, len(r.Regressors))
	for _, reg := range r.Regressors {
		rows = append(rows, []string{reg.Name, fmt.Sprintf("%.3f", reg.Mean), fmt.Sprintf("%.3f", reg.Std)})
	}
	return util.Table(w, prefix, indent, indentGrowth, "Regressors", []string{"Name", "Mean", "Std"}, rows)
}
