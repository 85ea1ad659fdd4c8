package retrieval

import (
	"encoding/json"
	"fmt"
	"time"

	"owlet-mcp/owlet"
)

const (
	medicalDisclaimer = "Owlet monitors are not medical devices. Always trust parental instincts and contact healthcare providers for medical concerns."
	emergencyContact  = "Contact emergency services immediately if baby appears unresponsive or in distress."
)

var detailTitles = map[Category]string{
	Vitals:     "Current Vital Signs",
	Alerts:     "Alert Status",
	Status:     "Device Status",
	Wellness:   "Wellness Summary",
	History:    "Historical Data Access",
	Live:       "Live Feed Access",
	DeviceInfo: "Device Information",
}

type alertInfo struct {
	alert       owlet.Alert
	description string
}

var criticalAlerts = []alertInfo{
	{owlet.AlertCriticalOxygen, "Critical Low Oxygen"},
	{owlet.AlertCriticalBattery, "Critical Battery Level"},
}

var standardAlerts = []alertInfo{
	{owlet.AlertLowOxygen, "Low Oxygen Level"},
	{owlet.AlertHighOxygen, "High Oxygen Level"},
	{owlet.AlertLowHeartRate, "Low Heart Rate"},
	{owlet.AlertHighHeartRate, "High Heart Rate"},
	{owlet.AlertLowBattery, "Low Battery"},
	{owlet.AlertLostPower, "Lost Power"},
	{owlet.AlertSockDisconnected, "Sock Disconnected"},
	{owlet.AlertSockOff, "Sock Removed"},
}

// Detail builds the full document for a category as indented JSON text.
func (f *Formatter) Detail(c Category, d owlet.Device, s owlet.Snapshot) (Document, error) {
	now := f.now()
	stamp := now.Format(time.RFC3339)

	var payload map[string]any
	switch c {
	case Vitals:
		payload = vitalsDetail(d, s)
	case Alerts:
		payload = alertsDetail(d, s)
	case Status:
		payload = statusDetail(d, s)
	case Wellness:
		payload = wellnessDetail(d, s, now)
	case History:
		payload = historyDetail(d, s, now)
	case Live:
		payload = liveDetail(d, s)
	case DeviceInfo:
		payload = deviceDetail(d, s)
	default:
		return Document{}, fmt.Errorf("%w: unknown data type: %s", ErrValidation, c)
	}
	payload["timestamp"] = stamp

	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode %s document: %w", c, err)
	}

	return Document{
		ID:    DocumentID(c, d.Serial),
		Title: detailTitles[c] + " - " + d.Name,
		Text:  string(text),
		URL:   c.URL(d.Serial),
		Metadata: &Metadata{
			Source:       SourceOwletAPI,
			DeviceSerial: d.Serial,
			DataType:     string(c),
			Timestamp:    stamp,
		},
	}, nil
}

func vitalsDetail(d owlet.Device, s owlet.Snapshot) map[string]any {
	vitals := map[string]any{}
	if hr, ok := s.HeartRate.Get(); ok {
		vitals["heart_rate"] = map[string]any{
			"value":  hr,
			"unit":   "BPM",
			"status": classify(HeartRateNormal(hr)),
		}
	}
	if ox, ok := s.OxygenSaturation.Get(); ok {
		vitals["oxygen_saturation"] = map[string]any{
			"value":  ox,
			"unit":   "%",
			"status": classify(OxygenNormal(ox)),
		}
	}
	if raw, ok := s.SkinTemperature.Get(); ok {
		t := ConvertTemperature(raw)
		vitals["skin_temperature"] = map[string]any{
			"celsius":    t.Celsius,
			"fahrenheit": t.Fahrenheit,
			"unit":       "°C",
		}
	}
	if state, ok := s.SleepState.Get(); ok {
		vitals["sleep_state"] = map[string]any{
			"value":         SleepStateLabel(state),
			"numeric_value": state,
		}
	}
	if level, ok := s.Movement.Get(); ok {
		vitals["movement"] = map[string]any{"level": level}
	}

	return map[string]any{
		"device": map[string]any{
			"name":    d.Name,
			"serial":  d.Serial,
			"model":   d.Model,
			"version": d.Version(s),
		},
		"vitals": vitals,
		"status": map[string]any{
			"battery_percentage": s.BatteryPercentage.Any(),
			"signal_strength":    s.SignalStrength.Any(),
			"charging":           s.Charging.Any(),
			"base_station_on":    s.BaseStationOn.Any(),
			"sock_connection":    s.SockConnection.Any(),
			"last_updated":       s.LastUpdated.Any(),
		},
	}
}

func alertsDetail(d owlet.Device, s owlet.Snapshot) map[string]any {
	critical := map[string]any{}
	standard := map[string]any{}
	wellness := map[string]any{}
	total, criticalCount := 0, 0

	for _, a := range criticalAlerts {
		if s.Active(a.alert) {
			critical[string(a.alert)] = map[string]any{"active": true, "description": a.description, "severity": "critical"}
			criticalCount++
			total++
		}
	}
	for _, a := range standardAlerts {
		if s.Active(a.alert) {
			standard[string(a.alert)] = map[string]any{"active": true, "description": a.description, "severity": "warning"}
			total++
		}
	}
	if s.Active(owlet.AlertWellness) {
		wellness[string(owlet.AlertWellness)] = map[string]any{"active": true, "description": "Wellness Notification", "severity": "info"}
	}

	return map[string]any{
		"device": map[string]any{
			"name":   d.Name,
			"serial": d.Serial,
		},
		"critical_alerts": critical,
		"standard_alerts": standard,
		"wellness_alerts": wellness,
		"alert_summary": map[string]any{
			"total_count":    total,
			"critical_count": criticalCount,
			"alert_paused":   s.AlertPaused.Any(),
		},
	}
}

func statusDetail(d owlet.Device, s owlet.Snapshot) map[string]any {
	return map[string]any{
		"device_info": map[string]any{
			"name":             d.Name,
			"serial":           d.Serial,
			"model":            d.Model,
			"oem_model":        d.OEMModel,
			"software_version": d.SoftwareVersion,
			"hardware_version": s.HardwareVersion.Any(),
			"mac_address":      d.MACAddress,
			"lan_ip":           d.LANIP,
			"sock_version":     d.Version(s),
		},
		"connectivity": map[string]any{
			"device_status":   d.ConnectionStatus,
			"sock_connected":  s.SockConnection.Any(),
			"base_station_on": s.BaseStationOn.Any(),
			"signal_strength": s.SignalStrength.Any(),
			"readings_active": s.ReadingsFlag.Any(),
		},
		"power": map[string]any{
			"battery_percentage":        s.BatteryPercentage.Any(),
			"battery_minutes_remaining": s.BatteryMinutes.Any(),
			"charging":                  s.Charging.Any(),
			"base_battery_status":       s.BaseBatteryStatus.Any(),
		},
		"monitoring": map[string]any{
			"monitoring_start_time":     s.MonitoringStartTime.Any(),
			"last_updated":              s.LastUpdated.Any(),
			"update_status":             s.UpdateStatus.Any(),
			"firmware_update_available": s.FirmwareUpdateAvailable.Any(),
		},
	}
}

// criticalCondition is true when an alert needs a parent's attention now.
func criticalCondition(s owlet.Snapshot) bool {
	return s.Active(owlet.AlertCriticalOxygen) ||
		s.Active(owlet.AlertCriticalBattery) ||
		s.Active(owlet.AlertSockDisconnected) ||
		s.Active(owlet.AlertSockOff)
}

func wellnessDetail(d owlet.Device, s owlet.Snapshot, now time.Time) map[string]any {
	current := map[string]any{}
	recommendations := []string{}
	concerns := []string{}
	hrNormal, oxNormal := true, true

	if hr, ok := s.HeartRate.Get(); ok {
		hrNormal = HeartRateNormal(hr)
		current["heart_rate"] = map[string]any{"value": hr, "status": classify(hrNormal)}
	}
	if ox, ok := s.OxygenSaturation.Get(); ok {
		oxNormal = OxygenNormal(ox)
		current["oxygen_saturation"] = map[string]any{"value": ox, "status": classify(oxNormal)}
	}

	overall := "monitoring"
	switch {
	case criticalCondition(s):
		overall = StatusAttentionNeeded
		concerns = append(concerns, "Critical alerts detected - check immediately")
	case hrNormal && oxNormal:
		overall = "good"
		recommendations = append(recommendations, "Baby appears to be doing well - continue normal monitoring")
	}

	if state, ok := s.SleepState.Get(); ok {
		label := SleepStateLabel(state)
		current["sleep_state"] = label
		if state == 2 {
			recommendations = append(recommendations, "Baby is in deep sleep - optimal rest state")
		}
	}

	return map[string]any{
		"device": map[string]any{
			"name":   d.Name,
			"serial": d.Serial,
		},
		"wellness_assessment": map[string]any{
			"overall_status":  overall,
			"recommendations": recommendations,
			"concerns":        concerns,
		},
		"current_vitals":     current,
		"monitoring_session": monitoringSession(s, now),
		"emergency_guidance": map[string]any{
			"important_note":    medicalDisclaimer,
			"emergency_contact": emergencyContact,
		},
	}
}

// monitoringSession describes the running session, empty when none is reported.
// Durations are in hours, rounded to one decimal.
func monitoringSession(s owlet.Snapshot, now time.Time) map[string]any {
	session := map[string]any{}
	if start, ok := s.MonitoringStartTime.Get(); ok {
		started := time.Unix(start, 0).UTC()
		session["started"] = started.Format(time.RFC3339)
		session["duration_hours"] = round1(now.Sub(started).Hours())
		session["last_updated"] = s.LastUpdated.Any()
	}
	return session
}

var historyMetricsV3 = []string{
	"Heart rate trends and patterns",
	"Oxygen saturation levels over time",
	"Skin temperature variations",
	"Sleep state analysis (Awake/Light Sleep/Deep Sleep)",
	"Movement activity patterns",
	"Sleep duration and quality metrics",
	"Alert frequency and types",
	"Base station connectivity history",
}

var historyMetricsBasic = []string{
	"Heart rate monitoring history",
	"Oxygen level tracking",
	"Movement pattern analysis",
	"Charging session history",
	"Connection status logs",
	"Alert and notification history",
}

func historyMetrics(version int) []string {
	if version == 3 {
		return historyMetricsV3
	}
	return historyMetricsBasic
}

func historyDetail(d owlet.Device, s owlet.Snapshot, now time.Time) map[string]any {
	return map[string]any{
		"device": map[string]any{
			"name":    d.Name,
			"serial":  d.Serial,
			"version": d.Version(s),
		},
		"current_session": monitoringSession(s, now),
		"data_access": map[string]any{
			"web_dashboard":     BaseURL,
			"mobile_app":        "Owlet Care app available on iOS and Android",
			"available_metrics": historyMetrics(d.Version(s)),
		},
		"data_retention": map[string]any{
			"real_time":       "Available while monitoring",
			"daily_summaries": "30+ days",
			"weekly_trends":   "Several months",
			"monthly_reports": "Extended historical period",
		},
	}
}

var liveFeaturesV3 = []string{
	"Real-time heart rate monitoring",
	"Oxygen saturation levels",
	"Skin temperature readings",
	"Sleep state tracking",
	"Movement detection",
	"Push notifications for alerts",
	"Live data streaming",
}

var liveFeaturesBasic = []string{
	"Real-time vital signs",
	"Push notifications for alerts",
	"Heart rate monitoring",
	"Oxygen level tracking",
	"Movement detection",
}

var dashboardFeatures = []string{
	"Live data dashboard",
	"Historical trends",
	"Alert management",
	"Device settings",
	"Export capabilities",
}

func liveDetail(d owlet.Device, s owlet.Snapshot) map[string]any {
	full := d.Version(s) == 3
	features := liveFeaturesBasic
	if full {
		features = liveFeaturesV3
	}

	return map[string]any{
		"device": map[string]any{
			"name":    d.Name,
			"serial":  d.Serial,
			"version": d.Version(s),
		},
		"live_capabilities": map[string]any{
			"real_time_vitals":   true,
			"live_notifications": true,
			"streaming_data":     full,
			"advanced_analytics": full,
		},
		"access_methods": map[string]any{
			"mobile_app": map[string]any{
				"name":      "Owlet Care app",
				"platforms": []string{"iOS", "Android"},
				"features":  features,
			},
			"web_dashboard": map[string]any{
				"url":      BaseURL,
				"features": dashboardFeatures,
			},
		},
		"current_status": map[string]any{
			"monitoring_active": s.ReadingsFlag.Any(),
			"base_station_on":   s.BaseStationOn.Any(),
			"sock_connected":    s.SockConnection.Any(),
			"last_update":       s.LastUpdated.Any(),
		},
	}
}

func deviceCapabilities(version int) []string {
	switch version {
	case 3:
		return []string{
			"Real-time heart rate monitoring",
			"Oxygen saturation tracking",
			"Skin temperature sensing",
			"Sleep state detection",
			"Movement tracking",
			"Advanced analytics",
			"Push notifications",
			"Historical data storage",
		}
	case 2:
		return []string{
			"Heart rate monitoring",
			"Oxygen level tracking",
			"Movement detection",
			"Basic analytics",
			"Push notifications",
			"Historical data storage",
		}
	default:
		return []string{
			"Basic monitoring features",
			"Alert notifications",
		}
	}
}

func deviceDetail(d owlet.Device, s owlet.Snapshot) map[string]any {
	return map[string]any{
		"device_details": map[string]any{
			"name":             d.Name,
			"serial":           d.Serial,
			"model":            d.Model,
			"oem_model":        d.OEMModel,
			"software_version": d.SoftwareVersion,
			"hardware_version": s.HardwareVersion.Any(),
			"sock_version":     d.Version(s),
			"mac_address":      d.MACAddress,
			"device_type":      d.DeviceType,
		},
		"current_status": map[string]any{
			"connection":        d.ConnectionStatus,
			"battery_level":     s.BatteryPercentage.Any(),
			"monitoring_active": s.ReadingsFlag.Any(),
			"last_updated":      s.LastUpdated.Any(),
		},
		"capabilities": deviceCapabilities(d.Version(s)),
		"support_info": map[string]any{
			"manufacturer": "Owlet Baby Care",
			"support_url":  "https://support.owletcare.com",
			"app_download": "Search 'Owlet Care' in app stores",
		},
	}
}
