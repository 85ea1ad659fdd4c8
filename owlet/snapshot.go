package owlet

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Alert is the property name of a boolean alert flag.
type Alert string

const (
	AlertCriticalOxygen   Alert = "critical_oxygen_alert"
	AlertCriticalBattery  Alert = "critical_battery_alert"
	AlertLowOxygen        Alert = "low_oxygen_alert"
	AlertHighOxygen       Alert = "high_oxygen_alert"
	AlertLowHeartRate     Alert = "low_heart_rate_alert"
	AlertHighHeartRate    Alert = "high_heart_rate_alert"
	AlertLowBattery       Alert = "low_battery_alert"
	AlertLostPower        Alert = "lost_power_alert"
	AlertSockDisconnected Alert = "sock_disconnected"
	AlertSockOff          Alert = "sock_off"
	AlertWellness         Alert = "wellness_alert"
)

// MonitoredAlerts are the flags counted by alert summaries, critical ones first.
var MonitoredAlerts = []Alert{
	AlertCriticalOxygen,
	AlertCriticalBattery,
	AlertLowOxygen,
	AlertHighOxygen,
	AlertLowHeartRate,
	AlertHighHeartRate,
	AlertLowBattery,
	AlertLostPower,
	AlertSockDisconnected,
	AlertSockOff,
}

func (a Alert) Critical() bool {
	return a == AlertCriticalOxygen || a == AlertCriticalBattery
}

// Snapshot is a point-in-time read of a device's telemetry. Every field
// carries its own reported flag; nothing is filled in with defaults.
type Snapshot struct {
	HeartRate        Reading[int]
	OxygenSaturation Reading[int]
	// SkinTemperature is the raw device value: tenths of a degree above 100, whole degrees otherwise.
	SkinTemperature Reading[float64]
	SleepState      Reading[int]
	Movement        Reading[int]

	BatteryPercentage Reading[int]
	BatteryMinutes    Reading[int]
	SignalStrength    Reading[int]
	Charging          Reading[bool]
	BaseBatteryStatus Reading[bool]

	BaseStationOn  Reading[bool]
	SockConnection Reading[bool]
	ReadingsFlag   Reading[bool]
	AlertPaused    Reading[bool]

	// MonitoringStartTime is a unix timestamp in seconds.
	MonitoringStartTime     Reading[int64]
	LastUpdated             Reading[string]
	HardwareVersion         Reading[string]
	UpdateStatus            Reading[int]
	FirmwareUpdateAvailable Reading[bool]

	Alerts map[Alert]bool

	// SockVersion is the hardware generation detected from the property set, 0 if unknown.
	SockVersion int
}

// Active reports whether an alert flag is raised.
func (s Snapshot) Active(a Alert) bool {
	return s.Alerts[a]
}

// ActiveAlerts returns the raised flags among MonitoredAlerts and how many are critical.
func (s Snapshot) ActiveAlerts() (active []Alert, critical int) {
	for _, a := range MonitoredAlerts {
		if s.Active(a) {
			active = append(active, a)
			if a.Critical() {
				critical++
			}
		}
	}
	return active, critical
}

// SnapshotFromProperties decodes a flattened property map. Missing keys stay
// unreported; JSON numbers, numeric strings and 0/1 flags are accepted.
func SnapshotFromProperties(props map[string]any) Snapshot {
	s := Snapshot{
		HeartRate:               intReading(props, "heart_rate"),
		OxygenSaturation:        intReading(props, "oxygen_saturation"),
		SkinTemperature:         floatReading(props, "skin_temperature"),
		SleepState:              intReading(props, "sleep_state"),
		Movement:                intReading(props, "movement"),
		BatteryPercentage:       intReading(props, "battery_percentage"),
		BatteryMinutes:          intReading(props, "battery_minutes"),
		SignalStrength:          intReading(props, "signal_strength"),
		Charging:                boolReading(props, "charging"),
		BaseBatteryStatus:       boolReading(props, "base_battery_status"),
		BaseStationOn:           boolReading(props, "base_station_on"),
		SockConnection:          boolReading(props, "sock_connection"),
		ReadingsFlag:            boolReading(props, "readings_flag"),
		AlertPaused:             boolReading(props, "alert_paused_status"),
		LastUpdated:             stringReading(props, "last_updated"),
		HardwareVersion:         stringReading(props, "hardware_version"),
		UpdateStatus:            intReading(props, "update_status"),
		FirmwareUpdateAvailable: boolReading(props, "firmware_update_available"),
		Alerts:                  make(map[Alert]bool),
	}

	// A zero start time means no session is running.
	if f, ok := number(props["monitoring_start_time"]); ok && f > 0 {
		s.MonitoringStartTime = Reported(int64(f))
	}

	for _, a := range MonitoredAlerts {
		if on, ok := flag(props[string(a)]); ok && on {
			s.Alerts[a] = true
		}
	}
	if on, ok := flag(props[string(AlertWellness)]); ok && on {
		s.Alerts[AlertWellness] = true
	}

	return s
}

func intReading(props map[string]any, key string) Reading[int] {
	f, ok := number(props[key])
	if !ok {
		return Reading[int]{}
	}
	return Reported(int(math.Round(f)))
}

func floatReading(props map[string]any, key string) Reading[float64] {
	f, ok := number(props[key])
	if !ok {
		return Reading[float64]{}
	}
	return Reported(f)
}

func boolReading(props map[string]any, key string) Reading[bool] {
	b, ok := flag(props[key])
	if !ok {
		return Reading[bool]{}
	}
	return Reported(b)
}

func stringReading(props map[string]any, key string) Reading[string] {
	switch v := props[key].(type) {
	case string:
		if v == "" {
			return Reading[string]{}
		}
		return Reported(v)
	case nil:
		return Reading[string]{}
	default:
		if f, ok := number(v); ok {
			return Reported(strconv.FormatFloat(f, 'f', -1, 64))
		}
		return Reading[string]{}
	}
}

// number accepts finite numeric values only; NaN and infinities count as not reported.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func flag(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "yes":
			return true, true
		case "false", "off", "no":
			return false, true
		}
	}
	if f, ok := number(v); ok {
		return f != 0, true
	}
	return false, false
}
