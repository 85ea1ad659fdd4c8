package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"owlet-mcp/owlet"

	"github.com/rs/zerolog/log"
)

// MaxQueryLength is the longest accepted search query, in characters.
const MaxQueryLength = 500

// DeviceSource is what search and fetch need from a device session.
type DeviceSource interface {
	Devices(ctx context.Context) ([]owlet.Device, error)
	Snapshot(ctx context.Context, device owlet.Device) (owlet.Snapshot, error)
}

// Router answers free-text search queries with summary documents.
type Router struct {
	source DeviceSource
	format *Formatter
}

func NewRouter(source DeviceSource, format *Formatter) *Router {
	return &Router{source: source, format: format}
}

// ValidateQuery rejects blank queries and queries over MaxQueryLength characters.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", ErrValidation)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return fmt.Errorf("%w: query exceeds %d characters", ErrValidation, MaxQueryLength)
	}
	return nil
}

// Search never fails: problems come back as a single explanatory document.
// Results are ordered by device, then by category.
func (r *Router) Search(ctx context.Context, query string) []Document {
	if err := ValidateQuery(query); err != nil {
		log.Debug().Err(err).Msg("Rejected search query")
		return []Document{notice("error_invalid_query", "Invalid Query",
			"Query validation failed. Please provide a valid search query.")}
	}

	devices, err := r.source.Devices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Search could not list devices")
		return []Document{notice("error", "Search Error",
			fmt.Sprintf("Unable to search monitoring data: %v", err))}
	}
	if len(devices) == 0 {
		return []Document{notice("no_devices", "No Owlet Devices Found",
			"No Owlet devices are currently available in your account.")}
	}

	matched := MatchCategories(query)

	var results []Document
	if len(matched) > 0 {
		results = r.collect(ctx, devices, matched)
	}

	if len(results) == 0 {
		for _, d := range devices {
			results = append(results, DeviceSummary(d))
		}
	}

	log.Info().Str("query", query).Int("results", len(results)).Msg("Search completed")
	return results
}

// collect reads every device concurrently; a failing device is logged and skipped.
func (r *Router) collect(ctx context.Context, devices []owlet.Device, matched []Category) []Document {
	perDevice := make([][]Document, len(devices))

	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func(i int, d owlet.Device) {
			defer wg.Done()
			docs, err := r.summarize(ctx, d, matched)
			if err != nil {
				log.Error().Err(err).Str("serial", d.Serial).Msg("Error processing device")
				return
			}
			perDevice[i] = docs
		}(i, d)
	}
	wg.Wait()

	var results []Document
	for _, docs := range perDevice {
		results = append(results, docs...)
	}
	return results
}

func (r *Router) summarize(ctx context.Context, d owlet.Device, matched []Category) (docs []Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			docs, err = nil, fmt.Errorf("formatting panicked: %v", p)
		}
	}()

	snap, err := r.source.Snapshot(ctx, d)
	if err != nil {
		return nil, err
	}

	docs = make([]Document, 0, len(matched))
	for _, c := range matched {
		docs = append(docs, r.format.Summary(c, d, snap))
	}
	return docs, nil
}
