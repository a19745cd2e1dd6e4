package feature

import (
	"time"
)

// Event is a named calendar day, such as a public holiday, modelled as a shift of the series on
// every occurrence of that day.
type Event struct {
	Name string `json:"name"`
}

func NewEvent(name string) *Event {
	return &Event{name}
}

func (e Event) String() string {
	return "event_" + e.Name
}

// Get returns the value of a label of the event. Only name is defined.
func (e Event) Get(label string) (string, bool) {
	return labelValue(e, label)
}

func (e Event) Type() FeatureType {
	return FeatureTypeEvent
}

func (e Event) Decode() map[string]string {
	return map[string]string{"name": e.Name}
}

func (e *Event) UnmarshalJSON(data []byte) error {
	labels, err := decodeLabels(data, FeatureTypeEvent)
	if err != nil {
		return err
	}
	e.Name = labels["name"]
	return nil
}

// Generate returns an indicator that is 1 at every time point whose calendar day is named after
// this event by nameOf and 0 elsewhere.
func (e Event) Generate(t []time.Time, nameOf func(time.Time) (string, bool)) []float64 {
	res := make([]float64, len(t))
	for i, tPnt := range t {
		if name, exists := nameOf(tPnt); exists && name == e.Name {
			res[i] = 1.0
		}
	}
	return res
}
