package owlet

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFromPropertiesTyped(t *testing.T) {
	s := SnapshotFromProperties(map[string]any{
		"heart_rate":            float64(120),
		"oxygen_saturation":     "98",
		"skin_temperature":      365,
		"charging":              1,
		"base_station_on":       true,
		"monitoring_start_time": float64(1700000000),
		"last_updated":          "2024-01-01T00:00:00Z",
		"critical_oxygen_alert": 1,
		"low_battery_alert":     true,
		"sock_off":              0,
		"wellness_alert":        "true",
	})

	hr, ok := s.HeartRate.Get()
	require.True(t, ok)
	assert.Equal(t, 120, hr)
	assert.Equal(t, 98, s.OxygenSaturation.Or(0))
	assert.Equal(t, 365.0, s.SkinTemperature.Value)
	assert.True(t, s.Charging.Value)
	assert.True(t, s.BaseStationOn.Value)
	assert.Equal(t, int64(1700000000), s.MonitoringStartTime.Value)
	assert.Equal(t, "2024-01-01T00:00:00Z", s.LastUpdated.Value)

	assert.True(t, s.Active(AlertCriticalOxygen))
	assert.True(t, s.Active(AlertLowBattery))
	assert.False(t, s.Active(AlertSockOff))
	assert.True(t, s.Active(AlertWellness))

	active, critical := s.ActiveAlerts()
	assert.Equal(t, []Alert{AlertCriticalOxygen, AlertLowBattery}, active)
	assert.Equal(t, 1, critical)
}

func TestSnapshotFromPropertiesMissingKeys(t *testing.T) {
	s := SnapshotFromProperties(map[string]any{
		"monitoring_start_time": 0,
		"heart_rate":            "n/a",
		"last_updated":          "",
	})

	assert.False(t, s.HeartRate.Reported)
	assert.False(t, s.OxygenSaturation.Reported)
	assert.False(t, s.MonitoringStartTime.Reported)
	assert.False(t, s.LastUpdated.Reported)
	assert.False(t, s.Charging.Reported)
	assert.Equal(t, -1, s.BatteryPercentage.Or(-1))

	active, critical := s.ActiveAlerts()
	assert.Empty(t, active)
	assert.Zero(t, critical)
}

func TestSnapshotFromPropertiesLeavesInputUntouched(t *testing.T) {
	props := map[string]any{"heart_rate": 130, "sock_off": true}
	_ = SnapshotFromProperties(props)
	assert.Equal(t, map[string]any{"heart_rate": 130, "sock_off": true}, props)
}

func TestReadingJSON(t *testing.T) {
	data, err := json.Marshal(map[string]any{
		"reported": Reported(42),
		"missing":  Reading[int]{},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reported":42,"missing":null}`, string(data))
}

func TestDeviceVersion(t *testing.T) {
	d := Device{Serial: "A", SockVersion: 2}
	assert.Equal(t, 2, d.Version(Snapshot{}))
	assert.Equal(t, 3, d.Version(Snapshot{SockVersion: 3}))
	assert.True(t, Device{ConnectionStatus: "Online"}.Online())
	assert.False(t, Device{ConnectionStatus: "Offline"}.Online())
}

func TestSnapshotFromPropertiesRejectsNonFinite(t *testing.T) {
	s := SnapshotFromProperties(map[string]any{
		"skin_temperature":   "NaN",
		"heart_rate":         "Inf",
		"oxygen_saturation":  "-Inf",
		"battery_percentage": math.NaN(),
		"movement":           math.Inf(1),
		"charging":           "NaN",
		"sleep_state":        "2",
	})

	assert.False(t, s.SkinTemperature.Reported)
	assert.False(t, s.HeartRate.Reported)
	assert.False(t, s.OxygenSaturation.Reported)
	assert.False(t, s.BatteryPercentage.Reported)
	assert.False(t, s.Movement.Reported)
	assert.False(t, s.Charging.Reported)
	assert.Equal(t, Reported(2), s.SleepState)

	_, err := json.Marshal(s.SkinTemperature)
	assert.NoError(t, err)
}
