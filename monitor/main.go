package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"owlet-mcp/monitor/lib"
	"owlet-mcp/owlet"
	"owlet-mcp/pipeline"
	"owlet-mcp/retrieval"
	"owlet-mcp/utils"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

var (
	envFilePath string
	checkOnly   bool
	setup       bool
	configPath  string
)

func init() {
	flag.StringVar(&envFilePath, "env", "", "Path to .env file to load environment variables")
	flag.BoolVar(&checkOnly, "check", false, "Sign in, list devices and exit")
	flag.BoolVar(&setup, "setup", false, "Add this server to the Claude Desktop configuration and exit")
	flag.StringVar(&configPath, "config", "", "Claude Desktop config file used by -setup (default: platform location)")
}

func main() {
	flag.Parse()

	// Load environment variables from .env file if specified
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file '%s': %v\n", envFilePath, err)
			envFilePath = ""
		}
	}

	utils.InitLogger(os.Getenv("LOG_LEVEL"))

	ctx := context.Background()
	creds, err := owlet.ResolveCredentials(ctx, envFilePath, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load Owlet credentials")
	}

	if setup {
		if err := runSetup(os.Stdout, configPath, envFilePath, creds); err != nil {
			log.Fatal().Err(err).Msg("Setup failed")
		}
		return
	}

	if err := creds.Validate(); err != nil {
		log.Warn().Err(err).Msg("Owlet credentials incomplete; tools will report authentication errors")
	}

	session := owlet.NewSession(owlet.NewClient(creds))
	defer session.Close()

	if checkOnly {
		code := runCheck(ctx, session)
		session.Close()
		os.Exit(code)
	}

	s := server.NewMCPServer(
		"Owlet Monitor",
		utils.Commit,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	logger := utils.NewMCPLogger(s, "owlet-monitor")
	logger.Info("Owlet MCP server starting up...")

	logs := pipeline.NewLogBuffer(pipeline.LogBufferSizeFromEnv())
	handlers := lib.NewHandlers(session, retrieval.NewFormatter(), pipeline.NewRateLimiter(), logs, logger)

	s.AddTool(CreateSearchTool(), handlers.HandleSearchTool)
	s.AddTool(CreateFetchTool(), handlers.HandleFetchTool)
	s.AddTool(CreateDeviceListTool(), handlers.HandleDeviceListTool)
	s.AddTool(CreateCurrentVitalsTool(), handlers.HandleCurrentVitalsTool)
	s.AddTool(CreateActiveAlertsTool(), handlers.HandleActiveAlertsTool)
	s.AddTool(CreateDeviceStatusTool(), handlers.HandleDeviceStatusTool)
	s.AddTool(CreateControlBaseStationTool(), handlers.HandleControlBaseStationTool)
	s.AddTool(CreateLiveFeedInfoTool(), handlers.HandleLiveFeedInfoTool)
	s.AddTool(CreateHistoricalDataInfoTool(), handlers.HandleHistoricalDataInfoTool)
	s.AddTool(CreateWellnessSummaryTool(), handlers.HandleWellnessSummaryTool)
	s.AddTool(CreateRefreshDevicesTool(), handlers.HandleRefreshDevicesTool)

	logger.Info("Owlet MCP server ready")

	if err := server.ServeStdio(s); err != nil {
		log.Error().Err(err).Msg("Server error")
	}
	log.Info().Msg("Server shutting down...")
}

// runCheck signs in and lists devices, printing what it finds.
func runCheck(ctx context.Context, session *owlet.Session) int {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	devices, err := session.Devices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection failed: %v\n", err)
		return 1
	}

	fmt.Printf("Authentication successful. Found %d device(s)\n", len(devices))
	for i, d := range devices {
		fmt.Printf("  %d. %s (%s) %s\n", i+1, d.Name, d.Serial, d.ConnectionStatus)
	}
	return 0
}
