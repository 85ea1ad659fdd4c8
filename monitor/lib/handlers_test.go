package lib

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"owlet-mcp/owlet"
	"owlet-mcp/pipeline"
	"owlet-mcp/retrieval"
	"owlet-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	nursery = owlet.Device{Name: "Nursery", Serial: "AC000W1", Model: "SS3", ConnectionStatus: owlet.StatusOnline, SockVersion: 3}
	bedroom = owlet.Device{Name: "Bedroom", Serial: "AC000W2", Model: "SS3", ConnectionStatus: owlet.StatusOnline, SockVersion: 3}
)

func vitals() owlet.Snapshot {
	return owlet.Snapshot{
		HeartRate:        owlet.Reported(118),
		OxygenSaturation: owlet.Reported(97),
		Alerts:           map[owlet.Alert]bool{},
	}
}

// switchingRegistry adds base station control to the mock.
type switchingRegistry struct {
	*owlet.MockRegistry
	switched map[string]bool
}

func (r *switchingRegistry) SetBaseStation(ctx context.Context, device owlet.Device, on bool) error {
	r.switched[device.Serial] = on
	return nil
}

func newHandlers(t *testing.T, registry owlet.Registry, limit int) *Handlers {
	format := &retrieval.Formatter{Now: func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }}
	limiter := pipeline.NewRateLimiterWithClock(limit, time.Minute, time.Now)
	return NewHandlers(owlet.NewSession(registry), format, limiter, pipeline.NewLogBuffer(10), nil)
}

type clientMessages struct {
	levels []any
	data   []any
}

func (c *clientMessages) SendNotificationToAllClients(method string, params map[string]any) {
	c.levels = append(c.levels, params["level"])
	c.data = append(c.data, params["data"])
}

func mockRegistry(t *testing.T, devices ...owlet.Device) *owlet.MockRegistry {
	ctrl := gomock.NewController(t)
	reg := owlet.NewMockRegistry(ctrl)
	reg.EXPECT().Authenticate(gomock.Any()).Return(nil).AnyTimes()
	reg.EXPECT().ListDevices(gomock.Any()).Return(devices, nil).AnyTimes()
	return reg
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleSearchTool(t *testing.T) {
	reg := mockRegistry(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(vitals(), nil)
	h := newHandlers(t, reg, 100)

	result, err := h.HandleSearchTool(context.Background(), request(map[string]any{"query": "heart"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload retrieval.SearchResults
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	require.Len(t, payload.Results, 1)
	assert.Equal(t, "vitals_AC000W1", payload.Results[0].ID)
	assert.Equal(t, "HR: 118 BPM, O2: 97%", payload.Results[0].Text)
}

func TestHandleFetchTool(t *testing.T) {
	reg := mockRegistry(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(vitals(), nil)
	h := newHandlers(t, reg, 100)

	result, err := h.HandleFetchTool(context.Background(), request(map[string]any{"id": "alerts_AC000W1"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var doc retrieval.Document
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &doc))
	assert.Equal(t, "alerts_AC000W1", doc.ID)
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, "alerts", doc.Metadata.DataType)

	result, err = h.HandleFetchTool(context.Background(), request(map[string]any{"id": "vitals_NOPE"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")

	result, err = h.HandleFetchTool(context.Background(), request(map[string]any{"id": "garbage"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "validation error")
}

func TestReportToolsSelectDevice(t *testing.T) {
	reg := mockRegistry(t, nursery, bedroom)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(vitals(), nil)
	reg.EXPECT().Snapshot(gomock.Any(), bedroom).Return(vitals(), nil)
	h := newHandlers(t, reg, 100)
	ctx := context.Background()

	result, err := h.HandleCurrentVitalsTool(ctx, request(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Current Vitals for Nursery (AC000W1)")

	result, err = h.HandleActiveAlertsTool(ctx, request(map[string]any{"device_serial": "AC000W2"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Active Alerts for Bedroom (AC000W2)")

	result, err = h.HandleDeviceStatusTool(ctx, request(map[string]any{"device_serial": "AC000W9"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "Device with serial AC000W9 not found.", resultText(t, result))
}

func TestReportToolsWithoutDevices(t *testing.T) {
	h := newHandlers(t, mockRegistry(t), 100)

	result, err := h.HandleWellnessSummaryTool(context.Background(), request(nil))
	require.NoError(t, err)
	assert.Equal(t, msgNoDevices, resultText(t, result))

	result, err = h.HandleDeviceListTool(context.Background(), request(nil))
	require.NoError(t, err)
	assert.Equal(t, "No Owlet devices found in your account.", resultText(t, result))
}

func TestReportToolSnapshotFailure(t *testing.T) {
	reg := mockRegistry(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(owlet.Snapshot{}, owlet.ErrUpstreamUnavailable)
	h := newHandlers(t, reg, 100)

	result, err := h.HandleLiveFeedInfoTool(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "error retrieving live feed info")
}

func TestHandleControlBaseStationTool(t *testing.T) {
	reg := &switchingRegistry{MockRegistry: mockRegistry(t, nursery), switched: map[string]bool{}}
	h := newHandlers(t, reg, 100)
	ctx := context.Background()

	result, err := h.HandleControlBaseStationTool(ctx, request(map[string]any{"action": "toggle"}))
	require.NoError(t, err)
	assert.Equal(t, msgInvalidAction, resultText(t, result))
	assert.Empty(t, reg.switched)

	result, err = h.HandleControlBaseStationTool(ctx, request(map[string]any{"action": "OFF"}))
	require.NoError(t, err)
	assert.Equal(t, "Base station turned off successfully for device Nursery (AC000W1)", resultText(t, result))
	assert.Equal(t, map[string]bool{"AC000W1": false}, reg.switched)
}

func TestHandleControlBaseStationToolUnsupported(t *testing.T) {
	h := newHandlers(t, mockRegistry(t, nursery), 100)

	result, err := h.HandleControlBaseStationTool(context.Background(), request(map[string]any{"action": "on"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not available")
}

func TestHandleRefreshDevicesTool(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := owlet.NewMockRegistry(ctrl)
	reg.EXPECT().Authenticate(gomock.Any()).Return(nil)
	gomock.InOrder(
		reg.EXPECT().ListDevices(gomock.Any()).Return([]owlet.Device{nursery}, nil),
		reg.EXPECT().ListDevices(gomock.Any()).Return([]owlet.Device{nursery, bedroom}, nil),
	)
	h := newHandlers(t, reg, 100)
	ctx := context.Background()

	result, err := h.HandleDeviceListTool(ctx, request(nil))
	require.NoError(t, err)
	assert.NotContains(t, resultText(t, result), "Bedroom")

	result, err = h.HandleRefreshDevicesTool(ctx, request(nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Device list refreshed: 2 device(s) found")
	assert.Contains(t, text, "Device 2: Bedroom")
}

func TestToolsAreRateLimited(t *testing.T) {
	h := newHandlers(t, mockRegistry(t, nursery), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := h.HandleDeviceListTool(ctx, request(nil))
		require.NoError(t, err)
		require.False(t, result.IsError)
	}

	result, err := h.HandleSearchTool(ctx, request(map[string]any{"query": "vitals"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "rate limit exceeded")
}

func TestReportToolSnapshotFailureNotifiesClients(t *testing.T) {
	reg := mockRegistry(t, nursery)
	reg.EXPECT().Snapshot(gomock.Any(), nursery).Return(owlet.Snapshot{}, owlet.ErrUpstreamUnavailable)

	messages := &clientMessages{}
	format := &retrieval.Formatter{Now: time.Now}
	limiter := pipeline.NewRateLimiterWithClock(100, time.Minute, time.Now)
	h := NewHandlers(owlet.NewSession(reg), format, limiter, nil, utils.NewMCPLogger(messages, ""))

	result, err := h.HandleCurrentVitalsTool(context.Background(), request(map[string]any{"device_serial": "AC000W1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	require.Len(t, messages.levels, 1)
	assert.Equal(t, "error", messages.levels[0])
	assert.Contains(t, messages.data[0], "Failed to read vitals for AC000W1")
}
