package schema

import (
	"fmt"
	"io/fs"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/record"
)

// definitions maps canonical core-file names to their schema definition.
var definitions = map[string]string{
	record.Subject:         "#Subject",
	record.DataDescription: "#DataDescription",
	record.Procedures:      "#Procedures",
	record.Instrument:      "#Instrument",
	record.Processing:      "#Processing",
	record.Acquisition:     "#Acquisition",
	record.QualityControl:  "#QualityControl",
}

// envelopeDefinition validates the fully assembled record.
const envelopeDefinition = "#Metadata"

// Validator checks documents against the embedded CUE schemas and returns
// their canonical serialized shape with defaults applied.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator compiles the embedded schemas. The schema files form one CUE
// instance, so definitions are shared across files.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	source, err := readSchemaSource()
	if err != nil {
		return nil, err
	}

	compiled := ctx.CompileBytes(source, cue.Filename("schemas.cue"))
	if compiled.Err() != nil {
		return nil, fmt.Errorf("compiling schemas: %w", compiled.Err())
	}

	schemas := make(map[string]cue.Value, len(definitions)+1)
	for name, def := range definitions {
		v := compiled.LookupPath(cue.ParsePath(def))
		if !v.Exists() {
			return nil, fmt.Errorf("schema definition %s for %s not found", def, name)
		}
		schemas[name] = v
	}

	envelope := compiled.LookupPath(cue.ParsePath(envelopeDefinition))
	if !envelope.Exists() {
		return nil, fmt.Errorf("schema definition %s not found", envelopeDefinition)
	}
	schemas[envelopeKey] = envelope

	return &Validator{ctx: ctx, schemas: schemas}, nil
}

// envelopeKey is the internal schemas-map key for the record envelope; it is
// not a core-file name.
const envelopeKey = "metadata"

// readSchemaSource concatenates the embedded .cue files in a stable order.
func readSchemaSource() ([]byte, error) {
	entries, err := fs.ReadDir(schemaFS, "cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schemas: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var source []byte
	for _, name := range names {
		data, err := fs.ReadFile(schemaFS, "cue/"+name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded schema %s: %w", name, err)
		}
		source = append(source, data...)
		source = append(source, '\n')
	}

	return source, nil
}

// HasSchema reports whether name is a canonical core file with a schema.
func (v *Validator) HasSchema(name string) bool {
	_, ok := definitions[name]
	return ok
}

// ValidateCoreFile validates a transformed core file against the schema for
// its canonical name. On success it returns the canonical serialized shape:
// the document decoded back out of CUE with defaults and coercions applied.
func (v *Validator) ValidateCoreFile(name string, doc map[string]any) (map[string]any, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return nil, fmt.Errorf("no schema for core file %q", name)
	}
	return v.validate(schema, name, doc)
}

// ValidateRecord validates a fully assembled record against the envelope
// schema, returning its canonical serialized shape.
func (v *Validator) ValidateRecord(rec map[string]any) (map[string]any, error) {
	return v.validate(v.schemas[envelopeKey], envelopeKey, rec)
}

// validate unifies doc with schema and decodes the result.
func (v *Validator) validate(schema cue.Value, name string, doc map[string]any) (map[string]any, error) {
	encoded := v.ctx.Encode(doc)
	if err := encoded.Err(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}

	unified := schema.Unify(encoded)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &merrors.DetailError{
			Type:    "schema validation failed",
			Message: cueerrors.Details(err, nil),
			Field:   name,
			Hint:    "re-run with --permissive to keep the unvalidated document",
			Cause:   merrors.ErrValidation,
		}
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding validated %s: %w", name, err)
	}

	return out, nil
}
