package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const deviceSerialDescription = "Serial number of the device. If not provided, the first device in the account is used."

func CreateSearchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Search live Owlet monitoring data. Keywords such as 'vitals', 'alerts', 'battery', 'wellness', 'history' or 'live feed' select the kind of summary returned for every device. Returns {\"results\": [...]} where each result has an id that can be passed to 'fetch'."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query, at most 500 characters (e.g. 'current vitals', 'active alerts', 'device status')"),
		),
	)
}

func CreateFetchTool() mcp.Tool {
	return mcp.NewTool("fetch",
		mcp.WithDescription("Fetch the detailed document for an id returned by 'search'. The document text is JSON built from a fresh reading of the device."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document id in the form '<category>_<serial>', e.g. 'vitals_AC000W123456'"),
		),
	)
}

func CreateDeviceListTool() mcp.Tool {
	return mcp.NewTool("get_device_list",
		mcp.WithDescription("Get a list of all Owlet devices in the account with their serial, model, connection and software version."),
	)
}

func CreateCurrentVitalsTool() mcp.Tool {
	return mcp.NewTool("get_current_vitals",
		mcp.WithDescription("Get current vital signs for a baby monitor device: heart rate, oxygen saturation, skin temperature, sleep state, movement and battery."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateActiveAlertsTool() mcp.Tool {
	return mcp.NewTool("get_active_alerts",
		mcp.WithDescription("Check for active alerts on a baby monitor device, critical alerts first."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateDeviceStatusTool() mcp.Tool {
	return mcp.NewTool("get_device_status",
		mcp.WithDescription("Get detailed device status including connectivity, battery and monitoring state."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateControlBaseStationTool() mcp.Tool {
	return mcp.NewTool("control_base_station",
		mcp.WithDescription("Turn the base station on or off. Confirm with the user before turning monitoring off."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Either 'on' or 'off'"),
			mcp.Enum("on", "off"),
		),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateLiveFeedInfoTool() mcp.Tool {
	return mcp.NewTool("get_live_feed_info",
		mcp.WithDescription("Explain how to access live monitoring for a device and which live data it supports."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateHistoricalDataInfoTool() mcp.Tool {
	return mcp.NewTool("get_historical_data_info",
		mcp.WithDescription("Describe the current monitoring session and where historical trends for a device can be viewed."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateWellnessSummaryTool() mcp.Tool {
	return mcp.NewTool("get_baby_wellness_summary",
		mcp.WithDescription("Get a wellness summary combining vitals, alerts, monitoring state and recommendations. Owlet monitors are not medical devices."),
		mcp.WithString("device_serial",
			mcp.Description(deviceSerialDescription),
		),
	)
}

func CreateRefreshDevicesTool() mcp.Tool {
	return mcp.NewTool("refresh_devices",
		mcp.WithDescription("Reload the device list from the Owlet cloud. Use after pairing a new sock or when a device is missing."),
	)
}
