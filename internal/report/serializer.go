// Package report serializes suite results into structured JSON records
// with provenance metadata, and validates every record against an embedded
// schema before it reaches disk. Numeric fields are encoded at full double
// precision (Go's shortest round-trip float encoding), so byte-for-byte
// comparisons against a previously saved baseline stay meaningful.
package report

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"concord/domain/core"
	"concord/internal/errors"
)

// Version identifies the record layout for downstream consumers
const Version = "1.0.0"

//go:embed schemas/record.schema.json
var recordSchemaSrc string

// Provenance captures everything needed to reproduce a record
type Provenance struct {
	RunID         string    `json:"run_id"`
	Suite         string    `json:"suite"`
	MasterSeed    int64     `json:"master_seed"`
	InputChecksum string    `json:"input_checksum,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	Version       string    `json:"version"`
}

// Record is the envelope written per suite invocation
type Record struct {
	Provenance Provenance  `json:"provenance"`
	Passed     bool        `json:"passed"`
	Result     interface{} `json:"result"`
}

// Writer builds and writes validated result records
type Writer struct {
	now      func() time.Time
	newRunID func() core.RunID
	schema   *jsonschema.Schema
}

// Option customizes a Writer; used by tests to pin clock and run ID
type Option func(*Writer)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithRunIDSource overrides run ID generation
func WithRunIDSource(f func() core.RunID) Option {
	return func(w *Writer) { w.newRunID = f }
}

// NewWriter compiles the embedded record schema and returns a ready writer
func NewWriter(opts ...Option) (*Writer, error) {
	schema, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}
	w := &Writer{
		now:      time.Now,
		newRunID: core.NewRunID,
		schema:   schema,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// NewRecord wraps one suite's result in its provenance envelope
func (w *Writer) NewRecord(suite string, passed bool, result interface{}, masterSeed int64, checksum core.Checksum) Record {
	return Record{
		Provenance: Provenance{
			RunID:         w.newRunID().String(),
			Suite:         suite,
			MasterSeed:    masterSeed,
			InputChecksum: checksum.String(),
			GeneratedAt:   w.now().UTC(),
			Version:       Version,
		},
		Passed: passed,
		Result: result,
	}
}

// Marshal validates the record against the embedded schema and returns its
// JSON encoding.
func (w *Writer) Marshal(rec Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode result record")
	}
	if err := w.validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write marshals, validates, and writes the record to path, creating
// parent directories as needed.
func (w *Writer) Write(path string, rec Record) error {
	data, err := w.Marshal(rec)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.IOError("create output directory", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.IOError("write result record", err)
	}
	return nil
}

func (w *Writer) validate(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.SchemaInvalid("decode record for validation", err)
	}
	if err := w.schema.Validate(v); err != nil {
		return errors.SchemaInvalid("result record violates schema", err)
	}
	return nil
}

// ValidateFile checks a previously written record against the schema
func ValidateFile(path string) error {
	schema, err := compileRecordSchema()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError("read result record", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.SchemaInvalid("decode record for validation", err)
	}
	if err := schema.Validate(v); err != nil {
		return errors.SchemaInvalid("result record violates schema", err)
	}
	return nil
}

func compileRecordSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.schema.json", strings.NewReader(recordSchemaSrc)); err != nil {
		return nil, errors.Wrap(err, "add record schema resource")
	}
	schema, err := compiler.Compile("record.schema.json")
	if err != nil {
		return nil, errors.Wrap(err, "compile record schema")
	}
	return schema, nil
}
