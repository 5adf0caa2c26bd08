package telemetry

// Level is the badge shown on a dashboard card.
type Level string

const (
	LevelNormal  Level = "normal"
	LevelWarning Level = "warning"
)

// Comfort bands for a healthy brood nest. Readings outside them flag the card.
var (
	TemperatureComfort = Range{Min: 34.5, Max: 35.5}
	HumidityComfort    = Range{Min: 50, Max: 60}
	MinHealthyActivity = 75
)

// Status holds the per-card badge levels for one sample.
type Status struct {
	Temperature Level `json:"temperature"`
	Humidity    Level `json:"humidity"`
	Weight      Level `json:"weight"`
	Activity    Level `json:"activity"`
}

// Assess classifies a sample for the status cards.
func Assess(s Sample) Status {
	st := Status{
		Temperature: LevelNormal,
		Humidity:    LevelNormal,
		Weight:      LevelNormal,
		Activity:    LevelNormal,
	}
	if s.Temperature < TemperatureComfort.Min || s.Temperature > TemperatureComfort.Max {
		st.Temperature = LevelWarning
	}
	if !HumidityComfort.Contains(s.Humidity) {
		st.Humidity = LevelWarning
	}
	if s.Activity < MinHealthyActivity {
		st.Activity = LevelWarning
	}
	return st
}

// Stat is the min/max/mean of one metric across a window.
type Stat struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
}

// Summary aggregates a window for chart axes and reports.
type Summary struct {
	Count       int  `json:"count" yaml:"count"`
	Temperature Stat `json:"temperature" yaml:"temperature"`
	Humidity    Stat `json:"humidity" yaml:"humidity"`
	Weight      Stat `json:"weight" yaml:"weight"`
	Activity    Stat `json:"activity" yaml:"activity"`
}

// Summarize computes per-metric statistics. An empty window yields a zero Summary.
func Summarize(window []Sample) Summary {
	if len(window) == 0 {
		return Summary{}
	}
	pick := func(get func(Sample) float64) Stat {
		st := Stat{Min: get(window[0]), Max: get(window[0])}
		var sum float64
		for _, s := range window {
			v := get(s)
			if v < st.Min {
				st.Min = v
			}
			if v > st.Max {
				st.Max = v
			}
			sum += v
		}
		st.Mean = sum / float64(len(window))
		return st
	}
	return Summary{
		Count:       len(window),
		Temperature: pick(func(s Sample) float64 { return s.Temperature }),
		Humidity:    pick(func(s Sample) float64 { return s.Humidity }),
		Weight:      pick(func(s Sample) float64 { return s.Weight }),
		Activity:    pick(func(s Sample) float64 { return float64(s.Activity) }),
	}
}
