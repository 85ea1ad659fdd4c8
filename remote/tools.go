package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

const instructions = `This MCP server provides baby monitoring capabilities for Owlet Smart Sock devices.
Use the search tool to find specific monitoring data, alerts, or device information.
Use the fetch tool to retrieve detailed vitals, historical data, or comprehensive reports.

Available search queries:
- "current vitals" - Get real-time heart rate, oxygen, temperature
- "active alerts" - Check for any monitoring alerts
- "device status" - Get device connectivity and battery status
- "wellness summary" - Get comprehensive baby health overview
- "historical data" - Access trends and historical monitoring
- "live feed" - Get live monitoring access information

The server connects to official Owlet APIs to provide real-time baby monitoring data.`

func CreateSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search",
		Description: "Search for baby monitoring data from Owlet devices: vitals, alerts, device status, wellness, historical trends and live feed access. Returns {\"results\": [...]} where each result has an id, title, summary text and a citation URL.",
	}
}

func CreateFetchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "fetch",
		Description: "Fetch the complete document for an id returned by search. The text field holds detailed JSON built from a fresh device reading, and metadata records its source and timestamp.",
	}
}
