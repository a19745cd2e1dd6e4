// Package feature names the columns of a forecast design matrix. Each feature is identified by
// its string form and described by a flat map of labels.
package feature

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

type FeatureType int

const (
	FeatureTypeGrowth FeatureType = iota
	FeatureTypeChangepoint
	FeatureTypeSeasonality
	FeatureTypeEvent
	FeatureTypeRegressor
)

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeGrowth:
		return "growth"
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeEvent:
		return "event"
	case FeatureTypeRegressor:
		return "regressor"
	}
	return "unknown"
}

type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

// labelValue looks up a label of a feature ignoring case
func labelValue(f Feature, label string) (string, bool) {
	v, exists := f.Decode()[strings.ToLower(label)]
	return v, exists
}

// decodeLabels parses the label map written by Decode
func decodeLabels(data []byte, ft FeatureType) (map[string]string, error) {
	var labels map[string]string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("unable to decode %s labels, %w", ft, err)
	}
	return labels, nil
}
