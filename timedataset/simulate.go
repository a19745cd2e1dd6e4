package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDays returns n consecutive calendar days at midnight UTC starting on the day of start.
func GenerateDays(start time.Time, n int) []time.Time {
	first := TruncateDay(start)
	t := make([]time.Time, n)
	for i := range n {
		t[i] = first.AddDate(0, 0, i)
	}
	return t
}

// daysSinceEpoch is the fractional number of days between the unix epoch and t.
func daysSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / Day.Seconds()
}

// elapsedDays is the fractional number of days from ref to t.
func elapsedDays(ref, t time.Time) float64 {
	return t.Sub(ref).Hours() / 24.0
}

// Series is a simulated demand series. Its methods modify the series in place and return it
// so components can be chained.
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) Scale(c float64) Series {
	floats.Scale(c, s)
	return s
}

// Clip raises every value below min up to min.
func (s Series) Clip(min float64) Series {
	for i := range s {
		s[i] = math.Max(s[i], min)
	}
	return s
}

func generate(t []time.Time, valueAt func(time.Time) float64) Series {
	y := make(Series, len(t))
	for i, ct := range t {
		y[i] = valueAt(ct)
	}
	return y
}

func GenerateConstY(n int, val float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = val
	}
	return y
}

// GenerateWaveY is a sine wave with a period in days and a phase offset in days.
func GenerateWaveY(t []time.Time, amp, periodDays, order, offsetDays float64) Series {
	freq := 2.0 * math.Pi * order / periodDays
	return generate(t, func(ct time.Time) float64 {
		return amp * math.Sin(freq*(daysSinceEpoch(ct)+offsetDays))
	})
}

// GenerateWeekdayY maps each point to the weight of its weekday where index 0 is Monday.
func GenerateWeekdayY(t []time.Time, weights [7]float64) Series {
	return generate(t, func(ct time.Time) float64 {
		return weights[(int(ct.Weekday())+6)%7]
	})
}

// GenerateTrendY is a line through zero at the first point rising by slope per day.
func GenerateTrendY(t []time.Time, slope float64) Series {
	if len(t) == 0 {
		return Series{}
	}
	return generate(t, func(ct time.Time) float64 {
		return slope * elapsedDays(t[0], ct)
	})
}

// GenerateEventY sets amp on every point matched by isEvent.
func GenerateEventY(t []time.Time, amp float64, isEvent func(time.Time) bool) Series {
	return generate(t, func(ct time.Time) float64 {
		if isEvent(ct) {
			return amp
		}
		return 0
	})
}

// GenerateWindowY sets amp on the points in [start, end), such as the days of a promotion.
func GenerateWindowY(t []time.Time, amp float64, start, end time.Time) Series {
	return GenerateEventY(t, amp, func(ct time.Time) bool {
		return !ct.Before(start) && ct.Before(end)
	})
}

// GenerateNoise returns gaussian noise of the given scale from a seeded source so simulated
// series are reproducible.
func GenerateNoise(t []time.Time, noiseScale float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed))
	return generate(t, func(time.Time) float64 {
		return r.NormFloat64() * noiseScale
	})
}

// GenerateChange adds a jump of bias at chpt followed by a slope per day.
func GenerateChange(t []time.Time, chpt time.Time, bias, slope float64) Series {
	return generate(t, func(ct time.Time) float64 {
		if ct.Before(chpt) {
			return 0
		}
		return bias + slope*elapsedDays(chpt, ct)
	})
}
