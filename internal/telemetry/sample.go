package telemetry

import (
	"math"
	"time"
)

// LabelLayout is the clock format used for chart axis labels.
const LabelLayout = "15:04"

// Sample is one hive sensor reading.
type Sample struct {
	Time        time.Time `json:"time" yaml:"time"`
	Label       string    `json:"label" yaml:"label"`
	Temperature float64   `json:"temperature" yaml:"temperature"` // °C
	Humidity    float64   `json:"humidity" yaml:"humidity"`       // %
	Weight      float64   `json:"weight" yaml:"weight"`           // kg
	Activity    int       `json:"activity" yaml:"activity"`       // % of flight activity, 0-100
}

// Rand is the randomness source used to draw metrics.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Range is a half-open interval [Min, Max).
type Range struct {
	Min float64
	Max float64
}

var (
	TemperatureRange   = Range{Min: 34, Max: 36}
	HumidityRange      = Range{Min: 50, Max: 60}
	InitialWeightRange = Range{Min: 45, Max: 45.5}
	DriftWeightRange   = Range{Min: 45, Max: 45.2}
	ActivityRange      = Range{Min: 70, Max: 100}
)

// Contains reports whether v lies in [Min, Max).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

func (r Range) draw(rng Rand) float64 {
	v := r.Min + rng.Float64()*(r.Max-r.Min)
	// rounding can land exactly on Max when Float64 is close to 1
	if v >= r.Max {
		v = math.Nextafter(r.Max, r.Min)
	}
	return v
}

func newSample(ts time.Time, rng Rand, weight Range) Sample {
	return Sample{
		Time:        ts,
		Label:       ts.Format(LabelLayout),
		Temperature: TemperatureRange.draw(rng),
		Humidity:    HumidityRange.draw(rng),
		Weight:      weight.draw(rng),
		Activity:    int(math.Floor(ActivityRange.draw(rng))),
	}
}
