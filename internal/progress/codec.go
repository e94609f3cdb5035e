package progress

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// DecodeRecord validates data against the record schema and decodes it.
// Malformed or schema-invalid data is logged and yields nil, so callers start
// over with an empty record instead of failing.
func DecodeRecord(data []byte, source string) *Record {
	schema, err := loadSchema()
	if err != nil {
		slog.Error("compiling progress schema", "error", err)
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		slog.Warn("progress data is not valid JSON, starting fresh", "source", source, "error", err)
		return nil
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		slog.Warn("progress data does not match schema, starting fresh", "source", source, "problems", problems)
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("decoding progress data, starting fresh", "source", source, "error", err)
		return nil
	}
	rec.normalize()
	return &rec
}

// EncodeRecord serializes a record as indented JSON.
func EncodeRecord(rec *Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding progress record: %w", err)
	}
	return data, nil
}
