package retrieval

import (
	"fmt"
	"strings"
	"time"

	"owlet-mcp/owlet"
)

const notReported = "not reported"

// Formatter turns device telemetry into documents. It never mutates its inputs.
type Formatter struct {
	Now func() time.Time
}

func NewFormatter() *Formatter {
	return &Formatter{Now: time.Now}
}

func (f *Formatter) now() time.Time {
	if f == nil || f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// Summary builds the one-line search result for a category.
func (f *Formatter) Summary(c Category, d owlet.Device, s owlet.Snapshot) Document {
	var title, text string

	switch c {
	case Vitals:
		title, text = "Current Vitals", vitalsDigest(s)
	case Alerts:
		title, text = "Alert Status", alertsDigest(s)
	case Status:
		title, text = "Device Status", statusDigest(d, s)
	case Wellness:
		title, text = "Wellness Summary", wellnessDigest(s)
	case History:
		title, text = "Historical Data", f.historyDigest(s)
	case Live:
		title, text = "Live Feed Access", liveDigest(d, s)
	default:
		return DeviceSummary(d)
	}

	return Document{
		ID:    DocumentID(c, d.Serial),
		Title: title + " - " + d.Name,
		Text:  text,
		URL:   c.URL(d.Serial),
	}
}

// DeviceSummary is the fallback result; it needs no telemetry.
func DeviceSummary(d owlet.Device) Document {
	return Document{
		ID:    DocumentID(DeviceInfo, d.Serial),
		Title: "Owlet Device - " + d.Name,
		Text:  fmt.Sprintf("Model: %s, Status: %s", d.Model, d.ConnectionStatus),
		URL:   DeviceInfo.URL(d.Serial),
	}
}

func vitalsDigest(s owlet.Snapshot) string {
	var parts []string
	if hr, ok := s.HeartRate.Get(); ok {
		parts = append(parts, fmt.Sprintf("HR: %d BPM", hr))
	}
	if ox, ok := s.OxygenSaturation.Get(); ok {
		parts = append(parts, fmt.Sprintf("O2: %d%%", ox))
	}
	if raw, ok := s.SkinTemperature.Get(); ok {
		parts = append(parts, fmt.Sprintf("Temp: %.1f°C", ConvertTemperature(raw).Celsius))
	}
	if len(parts) == 0 {
		return "Monitoring data available"
	}
	return strings.Join(parts, ", ")
}

func alertsDigest(s owlet.Snapshot) string {
	active, critical := s.ActiveAlerts()
	switch {
	case len(active) == 0:
		return "No active alerts - monitoring normally"
	case critical > 0:
		return fmt.Sprintf("%d critical alerts, %d total alerts", critical, len(active))
	default:
		return fmt.Sprintf("%d active alerts", len(active))
	}
}

func connectionLabel(d owlet.Device) string {
	if d.Online() {
		return "Connected"
	}
	return d.ConnectionStatus
}

func statusDigest(d owlet.Device, s owlet.Snapshot) string {
	battery := notReported
	if pct, ok := s.BatteryPercentage.Get(); ok {
		battery = fmt.Sprintf("%d%%", pct)
	}
	return fmt.Sprintf("Connection: %s, Battery: %s", connectionLabel(d), battery)
}

func wellnessDigest(s owlet.Snapshot) string {
	hr, ox := notReported, notReported
	if v, ok := s.HeartRate.Get(); ok {
		hr = fmt.Sprint(v)
	}
	if v, ok := s.OxygenSaturation.Get(); ok {
		ox = fmt.Sprintf("%d%%", v)
	}
	alerts := "No alerts"
	if s.Active(owlet.AlertCriticalOxygen) || s.Active(owlet.AlertCriticalBattery) {
		alerts = "Active alerts"
	}
	return fmt.Sprintf("HR: %s, O2: %s, Status: %s", hr, ox, alerts)
}

func (f *Formatter) historyDigest(s owlet.Snapshot) string {
	duration := "Session active"
	if start, ok := s.MonitoringStartTime.Get(); ok {
		hours := int(f.now().Sub(time.Unix(start, 0)).Hours())
		duration = fmt.Sprintf("Monitoring for %dh", hours)
	}
	return duration + ", trends and patterns available"
}

func liveDigest(d owlet.Device, s owlet.Snapshot) string {
	version := d.Version(s)
	capability := "Real-time vitals"
	if version == 3 {
		capability = "Full live monitoring"
	}
	if version == 0 {
		return fmt.Sprintf("Sock version unknown: %s available", capability)
	}
	return fmt.Sprintf("Sock v%d: %s available", version, capability)
}
