package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"owlet-mcp/owlet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testFormatter() *Formatter {
	return &Formatter{Now: func() time.Time { return fixedNow }}
}

var (
	nursery = owlet.Device{
		Name:             "Nursery",
		Serial:           "AC000W1",
		Model:            "SS3",
		ConnectionStatus: owlet.StatusOnline,
		SockVersion:      3,
	}
	guestRoom = owlet.Device{
		Name:             "Guest Room",
		Serial:           "AC000W2",
		Model:            "SS2",
		ConnectionStatus: "Offline",
		SockVersion:      2,
	}
)

func healthySnapshot() owlet.Snapshot {
	return owlet.Snapshot{
		HeartRate:         owlet.Reported(120),
		OxygenSaturation:  owlet.Reported(98),
		SkinTemperature:   owlet.Reported(365.0),
		SleepState:        owlet.Reported(2),
		BatteryPercentage: owlet.Reported(85),
		SockVersion:       3,
		Alerts:            map[owlet.Alert]bool{},
	}
}

// newSource returns a session over a mock registry that has already listed devices.
func newSource(t *testing.T, devices ...owlet.Device) (*owlet.Session, *owlet.MockRegistry) {
	ctrl := gomock.NewController(t)
	reg := owlet.NewMockRegistry(ctrl)
	reg.EXPECT().Authenticate(gomock.Any()).Return(nil).AnyTimes()
	reg.EXPECT().ListDevices(gomock.Any()).Return(devices, nil).AnyTimes()
	return owlet.NewSession(reg), reg
}

func TestSearchRejectsInvalidQueries(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := owlet.NewMockRegistry(ctrl)
	router := NewRouter(owlet.NewSession(reg), testFormatter())

	for _, q := range []string{"", "   \t", strings.Repeat("a", MaxQueryLength+1)} {
		results := router.Search(context.Background(), q)
		require.Len(t, results, 1)
		assert.Equal(t, "error_invalid_query", results[0].ID)
		assert.Equal(t, "Invalid Query", results[0].Title)
	}
}

func TestSearchAcceptsMaximumLength(t *testing.T) {
	source, _ := newSource(t)
	router := NewRouter(source, testFormatter())

	results := router.Search(context.Background(), strings.Repeat("a", MaxQueryLength))
	require.Len(t, results, 1)
	assert.Equal(t, "no_devices", results[0].ID)
}

func TestSearchVitals(t *testing.T) {
	source, reg := newSource(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(healthySnapshot(), nil)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "current vitals")
	require.Len(t, results, 1)

	doc := results[0]
	assert.Equal(t, "vitals_AC000W1", doc.ID)
	assert.Equal(t, "Current Vitals - Nursery", doc.Title)
	assert.Equal(t, "HR: 120 BPM, O2: 98%, Temp: 36.5°C", doc.Text)
	assert.Equal(t, "https://app.owletdata.com/device/AC000W1", doc.URL)
	assert.Nil(t, doc.Metadata)
}

func TestSearchOrdersByDeviceThenCategory(t *testing.T) {
	source, reg := newSource(t, nursery, guestRoom)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(healthySnapshot(), nil)
	reg.EXPECT().Snapshot(gomock.Any(), guestRoom).Return(owlet.Snapshot{}, nil)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "heart alerts")

	var ids []string
	for _, d := range results {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"vitals_AC000W1", "alerts_AC000W1", "vitals_AC000W2", "alerts_AC000W2"}, ids)
	assert.Equal(t, "Monitoring data available", results[2].Text)
	assert.Equal(t, "No active alerts - monitoring normally", results[3].Text)
}

func TestSearchFallsBackToDeviceSummaries(t *testing.T) {
	source, _ := newSource(t, nursery, guestRoom)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "hello there")
	require.Len(t, results, 2)
	assert.Equal(t, "device_AC000W1", results[0].ID)
	assert.Equal(t, "Owlet Device - Nursery", results[0].Title)
	assert.Equal(t, "Model: SS3, Status: Online", results[0].Text)
	assert.Equal(t, "device_AC000W2", results[1].ID)
}

func TestSearchSkipsFailingDevice(t *testing.T) {
	source, reg := newSource(t, nursery, guestRoom)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(owlet.Snapshot{}, owlet.ErrUpstreamUnavailable)
	reg.EXPECT().Snapshot(gomock.Any(), guestRoom).Return(healthySnapshot(), nil)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "battery")
	require.Len(t, results, 1)
	assert.Equal(t, "status_AC000W2", results[0].ID)
	assert.Equal(t, "Connection: Offline, Battery: 85%", results[0].Text)
}

// panickingSource panics while reading one device.
type panickingSource struct {
	devices []owlet.Device
	bad     string
}

func (p *panickingSource) Devices(ctx context.Context) ([]owlet.Device, error) {
	return p.devices, nil
}

func (p *panickingSource) Snapshot(ctx context.Context, d owlet.Device) (owlet.Snapshot, error) {
	if d.Serial == p.bad {
		panic("corrupt property payload")
	}
	return healthySnapshot(), nil
}

func TestSearchSkipsPanickingDevice(t *testing.T) {
	source := &panickingSource{devices: []owlet.Device{nursery, guestRoom}, bad: nursery.Serial}

	var results []Document
	require.NotPanics(t, func() {
		results = NewRouter(source, testFormatter()).Search(context.Background(), "heart")
	})
	require.Len(t, results, 1)
	assert.Equal(t, "vitals_AC000W2", results[0].ID)
}

func TestSearchIsRepeatable(t *testing.T) {
	source, reg := newSource(t, nursery, guestRoom)
	reg.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Return(healthySnapshot(), nil).Times(4)
	router := NewRouter(source, testFormatter())

	ids := func() []string {
		var out []string
		for _, d := range router.Search(context.Background(), "device status alerts") {
			out = append(out, d.ID)
		}
		return out
	}

	first := ids()
	assert.Equal(t, []string{"alerts_AC000W1", "status_AC000W1", "alerts_AC000W2", "status_AC000W2"}, first)
	assert.Equal(t, first, ids())
}

func TestSearchAllDevicesFailing(t *testing.T) {
	source, reg := newSource(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(owlet.Snapshot{}, owlet.ErrUpstreamUnavailable)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "vitals")
	require.Len(t, results, 1)
	assert.Equal(t, "device_AC000W1", results[0].ID)
}

func TestSearchNoDevices(t *testing.T) {
	source, _ := newSource(t)

	results := NewRouter(source, testFormatter()).Search(context.Background(), "vitals")
	require.Len(t, results, 1)
	assert.Equal(t, "no_devices", results[0].ID)
	assert.Equal(t, "No Owlet Devices Found", results[0].Title)
}

func TestSearchRegistryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := owlet.NewMockRegistry(ctrl)
	reg.EXPECT().Authenticate(gomock.Any()).Return(errors.New("boom"))

	results := NewRouter(owlet.NewSession(reg), testFormatter()).Search(context.Background(), "vitals")
	require.Len(t, results, 1)
	assert.Equal(t, "error", results[0].ID)
	assert.Equal(t, "Search Error", results[0].Title)
	assert.Equal(t, "Unable to search monitoring data: boom", results[0].Text)
}

func TestSummaryDigests(t *testing.T) {
	f := testFormatter()
	snap := healthySnapshot()
	snap.Alerts = map[owlet.Alert]bool{
		owlet.AlertCriticalOxygen: true,
		owlet.AlertLowBattery:     true,
	}
	snap.MonitoringStartTime = owlet.Reported(fixedNow.Add(-5 * time.Hour).Unix())

	assert.Equal(t, "1 critical alerts, 2 total alerts", f.Summary(Alerts, nursery, snap).Text)
	assert.Equal(t, "Connection: Connected, Battery: 85%", f.Summary(Status, nursery, snap).Text)
	assert.Equal(t, "HR: 120, O2: 98%, Status: Active alerts", f.Summary(Wellness, nursery, snap).Text)
	assert.Equal(t, "Monitoring for 5h, trends and patterns available", f.Summary(History, nursery, snap).Text)
	assert.Equal(t, "Sock v3: Full live monitoring available", f.Summary(Live, nursery, snap).Text)

	snap.Alerts = map[owlet.Alert]bool{owlet.AlertLowBattery: true}
	assert.Equal(t, "1 active alerts", f.Summary(Alerts, nursery, snap).Text)

	bare := owlet.Snapshot{}
	assert.Equal(t, "Connection: Offline, Battery: not reported", f.Summary(Status, guestRoom, bare).Text)
	assert.Equal(t, "HR: not reported, O2: not reported, Status: No alerts", f.Summary(Wellness, guestRoom, bare).Text)
	assert.Equal(t, "Session active, trends and patterns available", f.Summary(History, guestRoom, bare).Text)
	assert.Equal(t, "Sock v2: Real-time vitals available", f.Summary(Live, guestRoom, bare).Text)
	assert.Equal(t, "Sock version unknown: Real-time vitals available", f.Summary(Live, owlet.Device{Serial: "X"}, bare).Text)
}
