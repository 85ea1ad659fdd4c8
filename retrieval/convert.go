package retrieval

import "math"

const (
	StatusNormal          = "normal"
	StatusAttentionNeeded = "attention_needed"
)

// Heart rate bounds in BPM, inclusive.
const (
	minHeartRate = 60
	maxHeartRate = 160
	minOxygen    = 95
)

// Temperature is a skin temperature in both scales.
type Temperature struct {
	Celsius    float64
	Fahrenheit float64
}

// ConvertTemperature reads raw values above 100 as tenths of a degree Celsius.
func ConvertTemperature(raw float64) Temperature {
	c := raw
	if raw > 100 {
		c = raw / 10
	}
	return Temperature{
		Celsius:    round1(c),
		Fahrenheit: round1(c*9/5 + 32),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

var sleepStates = map[int]string{
	0: "Awake",
	1: "Light Sleep",
	2: "Deep Sleep",
}

func SleepStateLabel(state int) string {
	if label, ok := sleepStates[state]; ok {
		return label
	}
	return "Unknown"
}

func HeartRateNormal(bpm int) bool {
	return bpm >= minHeartRate && bpm <= maxHeartRate
}

func OxygenNormal(pct int) bool {
	return pct >= minOxygen
}

func classify(normal bool) string {
	if normal {
		return StatusNormal
	}
	return StatusAttentionNeeded
}
