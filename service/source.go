package service

import (
	"fmt"
	"slices"
	"strings"
)

// RegressorSource records where the exogenous regressors of a fitted model come from. It is fixed
// at fit time and every prediction must use the same source.
type RegressorSource struct {
	columns []string
}

// Explicit uses the named caller supplied columns as regressors
func Explicit(columns []string) RegressorSource {
	return RegressorSource{columns: slices.Clone(columns)}
}

// AutoDerived uses the calendar features derived from the dates as regressors
func AutoDerived() RegressorSource {
	return RegressorSource{}
}

// IsExplicit reports whether the regressors are caller supplied
func (r RegressorSource) IsExplicit() bool {
	return len(r.columns) > 0
}

// Columns returns the caller supplied regressor columns, empty when auto derived
func (r RegressorSource) Columns() []string {
	return slices.Clone(r.columns)
}

func (r RegressorSource) String() string {
	if !r.IsExplicit() {
		return "auto_derived"
	}
	return fmt.Sprintf("explicit(%s)", strings.Join(r.columns, ","))
}
