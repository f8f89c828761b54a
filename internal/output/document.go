package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/openacq/metamigrate/internal/record"
)

// DocumentOptions controls document output formatting.
type DocumentOptions struct {
	// Format specifies output format: "yaml" or "json"
	Format OutputFormat
	// Writer is the output destination
	Writer io.Writer
}

// Document pairs a core-file key with its content for output.
type Document struct {
	CoreFile string
	Object   map[string]any
}

// WriteDocuments writes core-file documents to the writer in the specified
// format. Documents are sorted by the fixed core-file order for consistent
// output.
func WriteDocuments(docs []Document, opts DocumentOptions) error {
	if len(docs) == 0 {
		return nil
	}

	sortDocuments(docs)

	switch opts.Format {
	case FormatJSON:
		return writeDocumentsJSON(docs, opts.Writer)
	case FormatYAML:
		return writeDocumentsYAML(docs, opts.Writer)
	case FormatTable:
		return fmt.Errorf("format %s not supported for document output", opts.Format)
	}
	return writeDocumentsJSON(docs, opts.Writer) // Default to JSON
}

// sortDocuments sorts documents by core-file rank, then by name.
func sortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		ri := record.Rank(docs[i].CoreFile)
		rj := record.Rank(docs[j].CoreFile)
		if ri != rj {
			return ri < rj
		}
		return docs[i].CoreFile < docs[j].CoreFile
	})
}

// writeDocumentsYAML writes documents as YAML separated by ---.
// The yaml.v3 encoder automatically adds document separators between documents.
func writeDocumentsYAML(docs []Document, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	for _, doc := range docs {
		if err := encoder.Encode(doc.Object); err != nil {
			return fmt.Errorf("encoding %s: %w", doc.CoreFile, err)
		}
	}

	return encoder.Close()
}

// writeDocumentsJSON writes documents as a single JSON object keyed by
// core-file name, the shape the documents hold inside a record.
func writeDocumentsJSON(docs []Document, w io.Writer) error {
	combined := make(map[string]any, len(docs))
	for _, doc := range docs {
		combined[doc.CoreFile] = doc.Object
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(combined); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// WriteDocument writes a single document to the writer.
func WriteDocument(doc map[string]any, format OutputFormat, w io.Writer) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		err := encoder.Encode(doc)
		if closeErr := encoder.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return err
	case FormatTable:
		return fmt.Errorf("format %s not supported for single document output", format)
	}
	// Default to JSON
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
