package retrieval

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	documentSchemaURL = "https://owlet-mcp.local/schemas/document.json"
	searchSchemaURL   = "https://owlet-mcp.local/schemas/search.json"
)

const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "title", "text", "url"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "text": {"type": "string"},
    "url": {"type": "string", "minLength": 1},
    "metadata": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

const searchSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {"type": "array", "items": {"$ref": "document.json"}}
  }
}`

var (
	documentSchema *jsonschema.Schema
	searchSchema   *jsonschema.Schema
	schemaOnce     sync.Once
	schemaErr      error
)

func initSchemas() error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(documentSchemaURL, strings.NewReader(documentSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add document schema: %w", err)
			return
		}
		if err := compiler.AddResource(searchSchemaURL, strings.NewReader(searchSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add search schema: %w", err)
			return
		}

		var err error
		if documentSchema, err = compiler.Compile(documentSchemaURL); err != nil {
			schemaErr = fmt.Errorf("failed to compile document schema: %w", err)
			return
		}
		if searchSchema, err = compiler.Compile(searchSchemaURL); err != nil {
			schemaErr = fmt.Errorf("failed to compile search schema: %w", err)
		}
	})
	return schemaErr
}

// ValidateWire checks a decoded JSON value against the document wire shape.
// Objects with a "results" key are checked as search payloads, other objects
// as single documents. Non-object values are not documents and pass.
func ValidateWire(v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if err := initSchemas(); err != nil {
		return err
	}

	schema := documentSchema
	if _, isSearch := obj["results"]; isSearch {
		schema = searchSchema
	}
	if err := schema.Validate(obj); err != nil {
		return fmt.Errorf("document does not match wire contract: %w", err)
	}
	return nil
}
