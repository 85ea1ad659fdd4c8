package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"owlet-mcp/owlet"
	"owlet-mcp/pipeline"
	"owlet-mcp/remote/lib"
	"owlet-mcp/retrieval"
	"owlet-mcp/utils"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	sessionCleanupInterval = 10 * time.Minute
	sessionIdleTimeout     = time.Hour
)

var envFilePath string

func init() {
	flag.StringVar(&envFilePath, "env", "", "Path to .env file to load environment variables")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// healthResponse is served on /health.
type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

// debugEndpointsEnabled reports whether MCP_DEBUG_ENDPOINTS turns on the
// request log and session endpoints. They expose every caller's queries.
func debugEndpointsEnabled() bool {
	enabled, err := strconv.ParseBool(os.Getenv("MCP_DEBUG_ENDPOINTS"))
	return err == nil && enabled
}

func newMux(s *mcp.Server, sessions *lib.SessionManager, logs *pipeline.LogBuffer, debug bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:   "healthy",
			Service:  "owlet-mcp-remote",
			Version:  utils.Commit,
			Sessions: sessions.SessionCount(),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	if debug {
		mux.HandleFunc("/logs", logs.LogsHandler)
		mux.HandleFunc("/logs/stats", logs.StatsHandler)
		mux.HandleFunc("/sessions", sessions.SessionsHandler)
	}

	// Create StreamableHTTPHandler for MCP requests
	httpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s
	}, nil)
	mux.Handle("/mcp", httpHandler)
	mux.Handle("/mcp/", httpHandler)

	return mux
}

func main() {
	flag.Parse()

	// Load environment variables from .env file if specified
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Warn().Err(err).Str("path", envFilePath).Msg("Failed to load .env file")
			envFilePath = ""
		}
	}

	utils.InitLogger(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := owlet.ResolveCredentials(ctx, envFilePath, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load Owlet credentials")
	}
	if err := creds.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Missing required Owlet credentials")
	}

	log.Info().Str("region", creds.Region).Msg("Starting Owlet Baby Monitor MCP Server")

	session := owlet.NewSession(owlet.NewClient(creds))
	defer session.Close()

	limiter := pipeline.NewRateLimiter()
	sessions := lib.NewSessionManager(func() { limiter.Sweep() })
	go sessions.RunCleanup(ctx, sessionCleanupInterval, sessionIdleTimeout)

	logs := pipeline.NewLogBuffer(pipeline.LogBufferSizeFromEnv())
	if logFile := os.Getenv("MCP_LOG_FILE"); logFile != "" && logFile != "none" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warn().Err(err).Str("path", logFile).Msg("Could not open request log file; using memory only")
		} else {
			defer f.Close()
			logs.MirrorTo(f)
		}
	}

	handlers := lib.NewHandlers(session, retrieval.NewFormatter(), limiter, logs, sessions)

	impl := &mcp.Implementation{Name: "Owlet Baby Monitor", Version: utils.Commit}
	opts := &mcp.ServerOptions{
		Instructions: instructions,
		HasTools:     true,
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			sessions.Watch(req.Session)
		},
	}
	s := mcp.NewServer(impl, opts)

	mcp.AddTool(s, CreateSearchTool(), handlers.HandleSearchTool)
	mcp.AddTool(s, CreateFetchTool(), handlers.HandleFetchTool)

	debug := debugEndpointsEnabled()
	if debug {
		log.Warn().Msg("Debug endpoints /logs and /sessions are enabled without authentication")
	}

	addr := net.JoinHostPort(getenv("HOST", "0.0.0.0"), getenv("PORT", "8000"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(s, sessions, logs, debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("MCP server available at /mcp")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("HTTP server error")
	}
	log.Info().Msg("Server shutting down...")
}
