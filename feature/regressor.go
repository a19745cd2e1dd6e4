package feature

// Regressor feature is an exogenous column supplied alongside the target series, either by
// the caller or derived from the calendar.
type Regressor struct {
	Name string `json:"name"`
}

func NewRegressor(name string) *Regressor {
	return &Regressor{name}
}

func (r Regressor) String() string {
	return "reg_" + r.Name
}

func (r Regressor) Get(label string) (string, bool) {
	return labelValue(r, label)
}

func (r Regressor) Type() FeatureType {
	return FeatureTypeRegressor
}

func (r Regressor) Decode() map[string]string {
	return map[string]string{"name": r.Name}
}

func (r *Regressor) UnmarshalJSON(data []byte) error {
	labels, err := decodeLabels(data, FeatureTypeRegressor)
	if err != nil {
		return err
	}
	r.Name = labels["name"]
	return nil
}
