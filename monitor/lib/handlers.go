package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"owlet-mcp/owlet"
	"owlet-mcp/pipeline"
	"owlet-mcp/retrieval"
	"owlet-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	msgNoDevices     = "No devices found. Please check your Owlet account."
	msgInvalidAction = "Invalid action. Please use 'on' or 'off'."
)

// Handlers serves the local monitor tools. Every tool runs through the
// request pipeline; search and fetch are also checked against the document
// wire contract.
type Handlers struct {
	session  *owlet.Session
	router   *retrieval.Router
	resolver *retrieval.Resolver
	format   *retrieval.Formatter
	logger   *utils.MCPLogger

	chains map[string]pipeline.Handler
}

// NewHandlers wires the tools to session. logs and logger may be nil.
func NewHandlers(session *owlet.Session, format *retrieval.Formatter, limiter *pipeline.RateLimiter, logs *pipeline.LogBuffer, logger *utils.MCPLogger) *Handlers {
	h := &Handlers{
		session:  session,
		router:   retrieval.NewRouter(session, format),
		resolver: retrieval.NewResolver(session, format),
		format:   format,
		logger:   logger,
	}

	stages := func(extra ...pipeline.Stage) []pipeline.Stage {
		s := []pipeline.Stage{pipeline.Instrument(logs), pipeline.Admit(limiter)}
		s = append(s, extra...)
		return append(s, pipeline.SanitizeOutput())
	}
	documents := stages(pipeline.Validate(retrieval.ValidateWire))
	reports := stages()

	h.chains = map[string]pipeline.Handler{
		"search":                    pipeline.Chain(h.search, documents...),
		"fetch":                     pipeline.Chain(h.fetch, documents...),
		"get_device_list":           pipeline.Chain(h.deviceList, reports...),
		"get_current_vitals":        pipeline.Chain(h.report("vitals", retrieval.VitalsReport), reports...),
		"get_active_alerts":         pipeline.Chain(h.report("alerts", retrieval.AlertsReport), reports...),
		"get_device_status":         pipeline.Chain(h.report("device status", retrieval.StatusReport), reports...),
		"get_live_feed_info":        pipeline.Chain(h.report("live feed info", retrieval.LiveFeedReport), reports...),
		"get_historical_data_info":  pipeline.Chain(h.report("historical data info", format.HistoryReport), reports...),
		"get_baby_wellness_summary": pipeline.Chain(h.report("wellness summary", format.WellnessReport), reports...),
		"control_base_station":      pipeline.Chain(h.controlBaseStation, reports...),
		"refresh_devices":           pipeline.Chain(h.refreshDevices, reports...),
	}
	return h
}

func callerID(ctx context.Context) string {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		return session.SessionID()
	}
	return ""
}

func (h *Handlers) run(ctx context.Context, tool string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chain, ok := h.chains[tool]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tool: %s", tool)), nil
	}

	call := &pipeline.Call{
		Tool:      tool,
		Caller:    callerID(ctx),
		Arguments: request.GetArguments(),
	}
	out, err := chain(ctx, call)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if text, ok := out.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(call *pipeline.Call, key string) string {
	if v, ok := call.Arguments[key].(string); ok {
		return v
	}
	return ""
}

// HandleSearchTool handles free-text search over live device data
func (h *Handlers) HandleSearchTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "search", request)
}

// HandleFetchTool handles fetching a detailed document by id
func (h *Handlers) HandleFetchTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "fetch", request)
}

func (h *Handlers) HandleDeviceListTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_device_list", request)
}

func (h *Handlers) HandleCurrentVitalsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_current_vitals", request)
}

func (h *Handlers) HandleActiveAlertsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_active_alerts", request)
}

func (h *Handlers) HandleDeviceStatusTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_device_status", request)
}

func (h *Handlers) HandleControlBaseStationTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "control_base_station", request)
}

func (h *Handlers) HandleLiveFeedInfoTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_live_feed_info", request)
}

func (h *Handlers) HandleHistoricalDataInfoTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_historical_data_info", request)
}

func (h *Handlers) HandleWellnessSummaryTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "get_baby_wellness_summary", request)
}

// HandleRefreshDevicesTool handles dropping the cached device roster
func (h *Handlers) HandleRefreshDevicesTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, "refresh_devices", request)
}

func (h *Handlers) search(ctx context.Context, call *pipeline.Call) (any, error) {
	return retrieval.SearchResults{Results: h.router.Search(ctx, stringArg(call, "query"))}, nil
}

func (h *Handlers) fetch(ctx context.Context, call *pipeline.Call) (any, error) {
	doc, err := h.resolver.Fetch(ctx, stringArg(call, "id"))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *Handlers) deviceList(ctx context.Context, call *pipeline.Call) (any, error) {
	devices, err := h.session.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving device list: %w", err)
	}
	return retrieval.DeviceListReport(devices), nil
}

// selectDevice picks the device named by serial, or the first device when
// serial is empty. A non-empty message means there is nothing to report on.
func (h *Handlers) selectDevice(ctx context.Context, serial string) (owlet.Device, string, error) {
	if serial != "" {
		device, err := h.session.Device(ctx, serial)
		if errors.Is(err, owlet.ErrDeviceNotFound) {
			return owlet.Device{}, fmt.Sprintf("Device with serial %s not found.", serial), nil
		}
		return device, "", err
	}

	devices, err := h.session.Devices(ctx)
	if err != nil {
		return owlet.Device{}, "", err
	}
	if len(devices) == 0 {
		return owlet.Device{}, msgNoDevices, nil
	}
	h.logger.Debugf("No device serial given, using %s (%s)", devices[0].Name, devices[0].Serial)
	return devices[0], "", nil
}

type reportFunc func(owlet.Device, owlet.Snapshot) string

// report builds a handler that renders one device's fresh snapshot.
func (h *Handlers) report(what string, render reportFunc) pipeline.Handler {
	return func(ctx context.Context, call *pipeline.Call) (any, error) {
		device, msg, err := h.selectDevice(ctx, stringArg(call, "device_serial"))
		if err != nil {
			return nil, fmt.Errorf("error retrieving %s: %w", what, err)
		}
		if msg != "" {
			return msg, nil
		}

		snap, err := h.session.Snapshot(ctx, device)
		if err != nil {
			h.logger.Errorf("Failed to read %s for %s: %v", what, device.Serial, err)
			return nil, fmt.Errorf("error retrieving %s: %w", what, err)
		}
		return render(device, snap), nil
	}
}

func (h *Handlers) controlBaseStation(ctx context.Context, call *pipeline.Call) (any, error) {
	action := strings.ToLower(stringArg(call, "action"))
	if action != "on" && action != "off" {
		return msgInvalidAction, nil
	}

	device, msg, err := h.selectDevice(ctx, stringArg(call, "device_serial"))
	if err != nil {
		return nil, fmt.Errorf("error controlling base station: %w", err)
	}
	if msg != "" {
		return msg, nil
	}

	turnOn := action == "on"
	if err := h.session.SetBaseStation(ctx, device, turnOn); err != nil {
		h.logger.Warningf("Base station %s failed for %s: %v", action, device.Serial, err)
		if errors.Is(err, owlet.ErrNotSupported) {
			return nil, fmt.Errorf("base station control is not available for %s: %w", device.Serial, err)
		}
		return nil, fmt.Errorf("failed to control base station: %w", err)
	}

	result := fmt.Sprintf("Base station turned %s successfully for device %s (%s)", action, device.Name, device.Serial)
	h.logger.Info(result)
	return result, nil
}

func (h *Handlers) refreshDevices(ctx context.Context, call *pipeline.Call) (any, error) {
	h.session.Refresh()

	devices, err := h.session.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("error refreshing devices: %w", err)
	}

	h.logger.Infof("Device roster refreshed: %d device(s)", len(devices))
	return fmt.Sprintf("Device list refreshed: %d device(s) found\n\n%s", len(devices), retrieval.DeviceListReport(devices)), nil
}
