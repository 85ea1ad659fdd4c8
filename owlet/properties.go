package owlet

import (
	"encoding/json"
	"fmt"
	"time"
)

type propertyEnvelope struct {
	Property struct {
		Name          string `json:"name"`
		Value         any    `json:"value"`
		DataUpdatedAt string `json:"data_updated_at"`
	} `json:"property"`
}

// namedProperties maps individual cloud properties to snapshot keys.
var namedProperties = map[string]string{
	"HEART_RATE":                "heart_rate",
	"OXYGEN_LEVEL":              "oxygen_saturation",
	"MOVEMENT":                  "movement",
	"BATT_LEVEL":                "battery_percentage",
	"CHARGE_STATUS":             "charging",
	"BASE_STATION_ON":           "base_station_on",
	"SOCK_CONNECTION":           "sock_connection",
	"BLE_RSSI":                  "signal_strength",
	"FIRMWARE_UPDATE_AVAILABLE": "firmware_update_available",
	"LOW_OX_ALRT":               string(AlertLowOxygen),
	"HIGH_OX_ALRT":              string(AlertHighOxygen),
	"LOW_HR_ALRT":               string(AlertLowHeartRate),
	"HIGH_HR_ALRT":              string(AlertHighHeartRate),
	"CRIT_OX_ALRT":              string(AlertCriticalOxygen),
	"CRIT_BATT_ALRT":            string(AlertCriticalBattery),
	"LOW_BATT_ALRT":             string(AlertLowBattery),
	"LOST_POWER_ALRT":           string(AlertLostPower),
	"SOCK_DISCON_ALRT":          string(AlertSockDisconnected),
	"SOCK_OFF":                  string(AlertSockOff),
	"WELLNESS_ALRT":             string(AlertWellness),
}

// vitalsKeys maps the short keys packed into REAL_TIME_VITALS.
var vitalsKeys = map[string]string{
	"ox":  "oxygen_saturation",
	"hr":  "heart_rate",
	"mv":  "movement",
	"sc":  "sock_connection",
	"st":  "skin_temperature",
	"bso": "base_station_on",
	"bat": "battery_percentage",
	"btt": "battery_minutes",
	"chg": "charging",
	"aps": "alert_paused_status",
	"ota": "update_status",
	"srf": "readings_flag",
	"ss":  "sleep_state",
	"mst": "monitoring_start_time",
	"bsb": "base_battery_status",
	"hw":  "hardware_version",
	"rsi": "signal_strength",
}

const realTimeVitals = "REAL_TIME_VITALS"

// decodeProperties flattens a properties.json body into snapshot keys and
// detects the sock generation from which properties are present.
func decodeProperties(data []byte) (map[string]any, int, error) {
	var envelopes []propertyEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to unmarshal properties: %v", ErrUpstreamUnavailable, err)
	}

	props := make(map[string]any)
	version := 0
	var latest time.Time
	var vitals any

	for _, e := range envelopes {
		p := e.Property
		if t, err := time.Parse(time.RFC3339, p.DataUpdatedAt); err == nil && t.After(latest) {
			latest = t
		}

		switch p.Name {
		case realTimeVitals:
			version = 3
			vitals = p.Value
			continue
		case "CHARGE_STATUS":
			if version == 0 {
				version = 2
			}
		}

		if key, ok := namedProperties[p.Name]; ok && p.Value != nil {
			props[key] = p.Value
		}
	}

	if raw, ok := vitals.(string); ok && raw != "" {
		var packed map[string]any
		if err := json.Unmarshal([]byte(raw), &packed); err != nil {
			return nil, 0, fmt.Errorf("%w: malformed %s: %v", ErrUpstreamUnavailable, realTimeVitals, err)
		}
		for short, value := range packed {
			if key, ok := vitalsKeys[short]; ok && value != nil {
				props[key] = value
			}
		}
	}

	if !latest.IsZero() {
		props["last_updated"] = latest.UTC().Format(time.RFC3339)
	}

	return props, version, nil
}
