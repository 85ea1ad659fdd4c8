package retrieval

import (
	"errors"
	"fmt"
	"strings"
)

const (
	BaseURL = "https://app.owletdata.com"
	// SourceOwletAPI tags documents built from live cloud data.
	SourceOwletAPI = "owlet_api"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// Metadata describes where a detailed document came from.
type Metadata struct {
	Source       string `json:"source"`
	DeviceSerial string `json:"device_serial"`
	DataType     string `json:"data_type"`
	Timestamp    string `json:"timestamp"`
}

// Document is the unit exchanged with MCP clients by search and fetch.
type Document struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	URL      string    `json:"url"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// SearchResults is the search tool payload.
type SearchResults struct {
	Results []Document `json:"results"`
}

// DocumentID joins a category and a serial.
func DocumentID(c Category, serial string) string {
	return string(c) + "_" + serial
}

// ParseDocumentID splits an id at its first underscore. Serials may contain
// underscores; category names never do.
func ParseDocumentID(id string) (Category, string, error) {
	if id == "" {
		return "", "", fmt.Errorf("%w: document id is required", ErrValidation)
	}

	prefix, serial, ok := strings.Cut(id, "_")
	if !ok {
		return "", "", fmt.Errorf("%w: invalid document id format: %s", ErrValidation, id)
	}
	if serial == "" {
		return "", "", fmt.Errorf("%w: document id %s has no device serial", ErrValidation, id)
	}

	c, ok := ParseCategory(prefix)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown data type: %s", ErrValidation, prefix)
	}
	return c, serial, nil
}

func notice(id, title, text string) Document {
	return Document{ID: id, Title: title, Text: text, URL: BaseURL}
}
