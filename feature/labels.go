package feature

// Labels is the ordered list of fitted features. The feature at position i owns coefficient i of
// the linear model.
type Labels struct {
	features []Feature
	pos      map[string]int
}

func NewLabels(features []Feature) *Labels {
	pos := make(map[string]int, len(features))
	for i, f := range features {
		pos[f.String()] = i
	}
	return &Labels{
		features: features,
		pos:      pos,
	}
}

func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.features)
}

// Labels returns a copy of the features in coefficient order
func (l *Labels) Labels() []Feature {
	if l == nil {
		return nil
	}
	features := make([]Feature, len(l.features))
	copy(features, l.features)
	return features
}

// Names returns the string form of every feature in coefficient order
func (l *Labels) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.features))
	for i, f := range l.features {
		names[i] = f.String()
	}
	return names
}

// Index returns the coefficient position of a feature
func (l *Labels) Index(f Feature) (int, bool) {
	if l == nil {
		return -1, false
	}
	if i, exists := l.pos[f.String()]; exists {
		return i, true
	}
	return -1, false
}

// OfType returns the coefficient positions of every feature of the type
func (l *Labels) OfType(ft FeatureType) []int {
	if l == nil {
		return nil
	}
	var idx []int
	for i, f := range l.features {
		if f.Type() == ft {
			idx = append(idx, i)
		}
	}
	return idx
}
