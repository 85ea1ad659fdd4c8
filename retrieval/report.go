package retrieval

import (
	"fmt"
	"strings"
	"time"

	"owlet-mcp/owlet"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const rule = "=================================================="

func heading(title string) string {
	return cases.Upper(language.English).String(title) + ":"
}

func yesNo(r owlet.Reading[bool], yes, no string) string {
	if r.Or(false) {
		return yes
	}
	return no
}

func sessionLength(start int64, now time.Time) string {
	d := now.Sub(time.Unix(start, 0))
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// DeviceListReport lists every device with its identity and connection.
func DeviceListReport(devices []owlet.Device) string {
	if len(devices) == 0 {
		return "No Owlet devices found in your account."
	}

	blocks := make([]string, 0, len(devices))
	for i, d := range devices {
		lines := []string{
			fmt.Sprintf("Device %d: %s", i+1, d.Name),
			"  Serial: " + d.Serial,
			"  Model: " + d.Model,
			"  Connection: " + d.ConnectionStatus,
			"  SW Version: " + d.SoftwareVersion,
		}
		if d.SockVersion != 0 {
			lines = append(lines, fmt.Sprintf("  Sock Version: %d", d.SockVersion))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// VitalLines lists the reported vital signs one per line.
func VitalLines(s owlet.Snapshot) string {
	var lines []string

	if hr, ok := s.HeartRate.Get(); ok {
		lines = append(lines, fmt.Sprintf("Heart Rate: %d BPM", hr))
	}
	if ox, ok := s.OxygenSaturation.Get(); ok {
		lines = append(lines, fmt.Sprintf("Oxygen Saturation: %d%%", ox))
	}
	if raw, ok := s.SkinTemperature.Get(); ok {
		t := ConvertTemperature(raw)
		lines = append(lines, fmt.Sprintf("Skin Temperature: %.1f°C (%.1f°F)", t.Celsius, t.Fahrenheit))
	}
	if pct, ok := s.BatteryPercentage.Get(); ok {
		lines = append(lines, fmt.Sprintf("Battery: %d%%", pct))
	}
	if rssi, ok := s.SignalStrength.Get(); ok {
		lines = append(lines, fmt.Sprintf("Signal Strength: %d dBm", rssi))
	}
	if state, ok := s.SleepState.Get(); ok {
		lines = append(lines, "Sleep State: "+SleepStateLabel(state))
	}
	if level, ok := s.Movement.Get(); ok {
		lines = append(lines, fmt.Sprintf("Movement Level: %d", level))
	}
	if s.Charging.Reported {
		lines = append(lines, "Charging: "+yesNo(s.Charging, "Charging", "Not Charging"))
	}
	if updated, ok := s.LastUpdated.Get(); ok {
		lines = append(lines, "Last Updated: "+updated)
	}

	if len(lines) == 0 {
		return "No vital signs data available"
	}
	return strings.Join(lines, "\n")
}

var alertLabels = []struct {
	alert owlet.Alert
	label string
}{
	{owlet.AlertCriticalOxygen, "CRITICAL: Low Oxygen Alert"},
	{owlet.AlertCriticalBattery, "CRITICAL: Critical Battery Alert"},
	{owlet.AlertLowOxygen, "Low Oxygen Alert"},
	{owlet.AlertHighOxygen, "High Oxygen Alert"},
	{owlet.AlertLowHeartRate, "Low Heart Rate Alert"},
	{owlet.AlertHighHeartRate, "High Heart Rate Alert"},
	{owlet.AlertLowBattery, "Low Battery Alert"},
	{owlet.AlertLostPower, "Lost Power Alert"},
	{owlet.AlertSockDisconnected, "Sock Disconnected Alert"},
	{owlet.AlertSockOff, "Sock Off Alert"},
	{owlet.AlertWellness, "Wellness Alert"},
}

// AlertLines lists raised alerts, or a reassurance when there are none.
func AlertLines(s owlet.Snapshot) string {
	var lines []string
	for _, a := range alertLabels {
		if s.Active(a.alert) {
			lines = append(lines, a.label)
		}
	}
	if s.FirmwareUpdateAvailable.Or(false) {
		lines = append(lines, "Firmware Update Available")
	}
	if len(lines) == 0 {
		return "No active alerts - Baby is being monitored normally"
	}
	return strings.Join(lines, "\n")
}

func VitalsReport(d owlet.Device, s owlet.Snapshot) string {
	return strings.Join([]string{
		fmt.Sprintf("Current Vitals for %s (%s)", d.Name, d.Serial),
		rule,
		VitalLines(s),
	}, "\n")
}

func AlertsReport(d owlet.Device, s owlet.Snapshot) string {
	lines := []string{
		fmt.Sprintf("Active Alerts for %s (%s)", d.Name, d.Serial),
		rule,
		AlertLines(s),
	}
	if s.AlertPaused.Or(false) {
		lines = append(lines, "\nNote: Alerts are currently paused")
	}
	return strings.Join(lines, "\n")
}

func StatusReport(d owlet.Device, s owlet.Snapshot) string {
	lines := []string{
		"Device Status for " + d.Name,
		rule,
		"Serial Number: " + d.Serial,
		fmt.Sprintf("Model: %s (%s)", d.Model, d.OEMModel),
		"Software Version: " + d.SoftwareVersion,
		"Hardware Version: " + s.HardwareVersion.Or("Unknown"),
		"MAC Address: " + d.MACAddress,
		"LAN IP: " + d.LANIP,
		"",
		"Connection Status:",
	}

	if d.Online() {
		lines = append(lines, "  Device: Connected")
	} else {
		lines = append(lines, "  Device: "+d.ConnectionStatus)
	}
	if s.SockConnection.Reported {
		lines = append(lines, "  Sock: "+yesNo(s.SockConnection, "Connected", "Disconnected"))
	}
	if s.BaseStationOn.Reported {
		lines = append(lines, "  Base Station: "+yesNo(s.BaseStationOn, "On", "Off"))
	}

	lines = append(lines, "", "Battery Information:")
	if pct, ok := s.BatteryPercentage.Get(); ok {
		level := fmt.Sprintf("%d%%", pct)
		if pct <= 20 {
			level += " (low)"
		}
		lines = append(lines, "  Sock Battery: "+level)
	}
	if minutes, ok := s.BatteryMinutes.Get(); ok {
		lines = append(lines, fmt.Sprintf("  Remaining Time: %dh %dm", minutes/60, minutes%60))
	}
	if s.BaseBatteryStatus.Reported {
		lines = append(lines, "  Base Station Battery: "+yesNo(s.BaseBatteryStatus, "Good", "Low"))
	}

	lines = append(lines, "", "Monitoring Status:")
	if start, ok := s.MonitoringStartTime.Get(); ok {
		lines = append(lines, "  Started: "+time.Unix(start, 0).UTC().Format(time.DateTime))
	}
	if s.ReadingsFlag.Reported {
		lines = append(lines, "  Readings: "+yesNo(s.ReadingsFlag, "Active", "Inactive"))
	}

	return strings.Join(lines, "\n")
}

func LiveFeedReport(d owlet.Device, s owlet.Snapshot) string {
	lines := []string{
		"Live Feed Information for " + d.Name,
		rule,
		"Device: " + d.Serial,
		"Model: " + d.Model,
		"",
		"Live Feed Access:",
	}

	if d.Version(s) == 3 {
		lines = append(lines,
			"This device supports live monitoring features",
			"",
			"Owlet App Live Feed:",
			"  - Open the Owlet Care app on your mobile device",
			"  - Navigate to your baby's monitoring dashboard",
			"  - Look for the 'Live' or 'Camera' tab",
			"  - The live feed will be available when the sock is active",
			"",
			"Web Dashboard Access:",
			"  - Visit: "+BaseURL,
			"  - Log in with your Owlet account credentials",
			"  - Select your baby's profile",
			"  - Access live data and historical trends",
			"",
			"Available Live Data:",
		)
		for _, f := range liveFeaturesV3[:5] {
			lines = append(lines, "  - "+f)
		}
		lines = append(lines, "  - Base station status")
	} else {
		lines = append(lines,
			"This device has limited live feed capabilities",
			"",
			"Available Features:",
			"  - Real-time vital signs in the Owlet app",
			"  - Push notifications for alerts",
			"  - Historical data tracking",
			"",
			"Live Data Access:",
			"  - Heart rate monitoring",
			"  - Oxygen level tracking",
			"  - Movement detection",
			"  - Charging status",
		)
	}

	lines = append(lines,
		"",
		"Current Status:",
		"  - Monitoring Active: "+yesNo(s.ReadingsFlag, "Yes", "No"),
		"  - Base Station: "+yesNo(s.BaseStationOn, "On", "Off"),
		"  - Sock Connected: "+yesNo(s.SockConnection, "Yes", "No"),
	)
	if updated, ok := s.LastUpdated.Get(); ok {
		lines = append(lines, "  - Last Update: "+updated)
	}

	lines = append(lines,
		"",
		"Tips for Best Live Feed Experience:",
		"  - Ensure strong WiFi connection for the base station",
		"  - Keep the sock charged and properly positioned",
		"  - Use the official Owlet Care app for best performance",
		"  - Enable notifications to get real-time alerts",
	)
	return strings.Join(lines, "\n")
}

func (f *Formatter) HistoryReport(d owlet.Device, s owlet.Snapshot) string {
	version := "unknown"
	if v := d.Version(s); v != 0 {
		version = fmt.Sprint(v)
	}

	lines := []string{
		"Historical Data Information for " + d.Name,
		rule,
		"Device: " + d.Serial,
		"Sock Version: " + version,
		"",
		"Historical Data Access:",
	}

	if start, ok := s.MonitoringStartTime.Get(); ok {
		lines = append(lines,
			"  - Current Session Started: "+time.Unix(start, 0).UTC().Format(time.DateTime),
			"  - Session Duration: "+sessionLength(start, f.now()),
		)
	}

	lines = append(lines,
		"",
		"Owlet Web Dashboard:",
		"  - URL: "+BaseURL,
		"  - Login with your Owlet account credentials",
		"  - Access historical trends and analytics",
		"",
		"Owlet Mobile App:",
		"  - Open the Owlet Care app",
		"  - Navigate to 'History' or 'Trends' section",
		"  - View daily, weekly, and monthly summaries",
		"",
		"Available Historical Metrics:",
	)
	for _, m := range historyMetrics(d.Version(s)) {
		lines = append(lines, "  - "+m)
	}

	lines = append(lines,
		"",
		"Data Retention:",
		"  - Real-time data: Available while monitoring",
		"  - Daily summaries: Typically 30+ days",
		"  - Weekly trends: Several months",
		"  - Monthly reports: Extended historical period",
		"",
		"Export Options:",
		"  - PDF reports available through the web dashboard",
		"  - Email summaries can be enabled",
		"  - Share reports with healthcare providers",
		"",
		"Current Data Snapshot:",
		"  - Last Updated: "+s.LastUpdated.Or("Unknown"),
	)
	if hr, ok := s.HeartRate.Get(); ok {
		lines = append(lines, fmt.Sprintf("  - Current Heart Rate: %d BPM", hr))
	}
	if ox, ok := s.OxygenSaturation.Get(); ok {
		lines = append(lines, fmt.Sprintf("  - Current Oxygen Saturation: %d%%", ox))
	}
	if state, ok := s.SleepState.Get(); ok {
		lines = append(lines, "  - Current Sleep State: "+SleepStateLabel(state))
	}

	return strings.Join(lines, "\n")
}

func (f *Formatter) WellnessReport(d owlet.Device, s owlet.Snapshot) string {
	now := f.now()
	lines := []string{
		"Baby Wellness Summary",
		fmt.Sprintf("Device: %s (%s)", d.Name, d.Serial),
		"Generated: " + now.Format(time.DateTime),
		rule,
		"",
		heading("Vital signs"),
		VitalLines(s),
		"",
		heading("Alert status"),
		AlertLines(s),
		"",
		heading("Monitoring status"),
		"  - Device Connection: " + d.ConnectionStatus,
		"  - Sock Connection: " + yesNo(s.SockConnection, "Connected", "Disconnected"),
		"  - Base Station: " + yesNo(s.BaseStationOn, "On", "Off"),
		"  - Readings Active: " + yesNo(s.ReadingsFlag, "Yes", "No"),
	}
	if start, ok := s.MonitoringStartTime.Get(); ok {
		lines = append(lines, "  - Monitoring Duration: "+sessionLength(start, now))
	}

	lines = append(lines, "", heading("Wellness assessment"))
	if criticalCondition(s) {
		lines = append(lines, "  ATTENTION NEEDED: Critical alerts detected - check immediately")
	} else {
		hrOK := true
		if hr, ok := s.HeartRate.Get(); ok {
			hrOK = HeartRateNormal(hr)
		}
		oxOK := true
		if ox, ok := s.OxygenSaturation.Get(); ok {
			oxOK = OxygenNormal(ox)
		}
		batteryOK := s.BatteryPercentage.Or(100) > 20

		if hrOK && oxOK && batteryOK {
			lines = append(lines, "  Baby appears to be doing well - all vitals in normal range")
		}
		if !hrOK {
			lines = append(lines, "  Heart rate may need attention")
		}
		if !oxOK {
			lines = append(lines, "  Oxygen saturation may need attention")
		}
		if !batteryOK {
			lines = append(lines, "  Device battery needs charging soon")
		}
	}

	if state, ok := s.SleepState.Get(); ok {
		switch state {
		case 2:
			lines = append(lines, "  Baby is in deep sleep - optimal rest state")
		case 1:
			lines = append(lines, "  Baby is in light sleep - resting comfortably")
		default:
			lines = append(lines, "  Baby is awake - normal activity period")
		}
	}

	lines = append(lines, "", heading("Recommendations"))
	if s.BatteryPercentage.Or(100) < 30 {
		lines = append(lines, "  - Charge the sock soon to ensure continuous monitoring")
	}
	if !s.BaseStationOn.Or(true) {
		lines = append(lines, "  - Turn on the base station to resume monitoring")
	}
	if !s.SockConnection.Or(true) {
		lines = append(lines, "  - Check sock placement and connection")
	}
	low := s.Active(owlet.AlertLowOxygen) || s.Active(owlet.AlertLowHeartRate)
	if low {
		lines = append(lines, "  - Monitor baby closely and consult healthcare provider if concerns persist")
	}
	if !low && !s.Active(owlet.AlertCriticalOxygen) && !s.Active(owlet.AlertCriticalBattery) {
		lines = append(lines,
			"  - Continue normal monitoring routine",
			"  - Ensure sock is properly positioned on baby's foot",
			"  - Keep base station within range and powered",
		)
	}

	lines = append(lines,
		"",
		heading("Emergency guidance"),
		"  - If baby appears unresponsive or in distress, contact emergency services immediately",
		"  - Owlet monitors are not medical devices and should not replace attentive care",
		"  - Always trust your parental instincts over device readings",
		"  - Consult your pediatrician for any health concerns",
	)
	return strings.Join(lines, "\n")
}
