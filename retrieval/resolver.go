package retrieval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Resolver turns a document id from search back into a full document.
type Resolver struct {
	source DeviceSource
	format *Formatter
}

func NewResolver(source DeviceSource, format *Formatter) *Resolver {
	return &Resolver{source: source, format: format}
}

// Fetch reads a fresh snapshot for the device named in the id and renders the
// detailed document. Malformed ids fail with ErrValidation and unknown serials
// with ErrNotFound; registry errors are passed through wrapped.
func (r *Resolver) Fetch(ctx context.Context, id string) (Document, error) {
	category, serial, err := ParseDocumentID(id)
	if err != nil {
		return Document{}, err
	}

	devices, err := r.source.Devices(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("unable to fetch document %s: %w", id, err)
	}

	for _, d := range devices {
		if d.Serial != serial {
			continue
		}

		snap, err := r.source.Snapshot(ctx, d)
		if err != nil {
			return Document{}, fmt.Errorf("unable to fetch document %s: %w", id, err)
		}

		doc, err := r.format.Detail(category, d, snap)
		if err != nil {
			return Document{}, err
		}
		log.Info().Str("id", id).Msg("Fetched document")
		return doc, nil
	}

	return Document{}, fmt.Errorf("%w: device %s", ErrNotFound, serial)
}
