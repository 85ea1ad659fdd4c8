package pipeline

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultLogBufferSize = 1000

// RequestLog is a structured record of one tool call.
type RequestLog struct {
	Timestamp time.Time      `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Caller    string         `json:"caller,omitempty"`
	Arguments map[string]any `json:"arguments"`
	Duration  float64        `json:"duration_seconds"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// LogBuffer keeps the most recent call records in a ring, optionally
// mirroring each one as a JSON line to a backup writer.
type LogBuffer struct {
	mu     sync.RWMutex
	logs   []RequestLog
	size   int
	index  int
	count  int
	backup io.Writer
}

func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = defaultLogBufferSize
	}
	return &LogBuffer{
		logs: make([]RequestLog, size),
		size: size,
	}
}

// LogBufferSizeFromEnv reads MCP_LOG_BUFFER_SIZE, falling back to 1000.
func LogBufferSizeFromEnv() int {
	if envSize := os.Getenv("MCP_LOG_BUFFER_SIZE"); envSize != "" {
		if size, err := strconv.Atoi(envSize); err == nil && size > 0 {
			return size
		}
	}
	return defaultLogBufferSize
}

// MirrorTo sets a writer that receives every record as a JSON line.
func (b *LogBuffer) MirrorTo(w io.Writer) {
	b.mu.Lock()
	b.backup = w
	b.mu.Unlock()
}

// Add stores a record, overwriting the oldest once the ring is full.
func (b *LogBuffer) Add(entry RequestLog) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logs[b.index] = entry
	b.index = (b.index + 1) % b.size
	if b.count < b.size {
		b.count++
	}

	if b.backup != nil {
		if data, err := json.Marshal(entry); err == nil {
			data = append(data, '\n')
			if _, err := b.backup.Write(data); err != nil {
				log.Warn().Err(err).Msg("Failed to mirror request log")
			}
		}
	}
}

// Recent returns records in chronological order, skipping those before since
// (when set) and keeping only the newest limit (when positive).
func (b *LogBuffer) Recent(limit int, since time.Time) []RequestLog {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := b.index
	if b.count < b.size {
		start = 0
	}

	result := []RequestLog{}
	for i := 0; i < b.count; i++ {
		entry := b.logs[(start+i)%b.size]
		if !since.IsZero() && entry.Timestamp.Before(since) {
			continue
		}
		result = append(result, entry)
	}

	if limit > 0 && limit < len(result) {
		result = result[len(result)-limit:]
	}
	return result
}

// LogStats describes the buffer.
type LogStats struct {
	BufferSize    int  `json:"buffer_size"`
	EntriesStored int  `json:"entries_stored"`
	CurrentIndex  int  `json:"current_index"`
	FileBackup    bool `json:"file_backup"`
}

func (b *LogBuffer) Stats() LogStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return LogStats{
		BufferSize:    b.size,
		EntriesStored: b.count,
		CurrentIndex:  b.index,
		FileBackup:    b.backup != nil,
	}
}

// LogsResponse is the body served by LogsHandler.
type LogsResponse struct {
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Logs   []RequestLog `json:"logs"`
}

type logsParams struct {
	limit  int
	since  time.Time
	tool   string
	status string
}

func parseLogsParams(r *http.Request) logsParams {
	q := r.URL.Query()

	params := logsParams{
		limit:  100,
		tool:   q.Get("tool"),
		status: q.Get("status"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		params.limit = limit
	}
	if since, err := time.Parse(time.RFC3339, q.Get("since")); err == nil {
		params.since = since
	}
	return params
}

func filterLogs(logs []RequestLog, params logsParams) []RequestLog {
	filtered := []RequestLog{}
	for _, entry := range logs {
		if params.tool != "" && entry.ToolName != params.tool {
			continue
		}
		if params.status != "" && entry.Status != params.status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// LogsHandler serves recent records. Query parameters: limit, since (RFC3339),
// tool and status.
func (b *LogBuffer) LogsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	params := parseLogsParams(r)
	logs := filterLogs(b.Recent(params.limit, params.since), params)

	response := LogsResponse{Status: "success", Count: len(logs), Logs: logs}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Error encoding logs response")
	}
}

func (b *LogBuffer) StatsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b.Stats()); err != nil {
		log.Error().Err(err).Msg("Error encoding stats response")
	}
}
