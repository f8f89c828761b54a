package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SplitOptions controls split file output.
type SplitOptions struct {
	// OutDir is the directory for split output
	OutDir string
	// Format specifies output format: "yaml" or "json"
	Format OutputFormat
}

// WriteSplitDocuments writes each core file to a separate file named
// <core-file>.<ext>, the layout data assets use on disk.
func WriteSplitDocuments(docs []Document, opts SplitOptions) error {
	if len(docs) == 0 {
		return nil
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, doc := range docs {
		filename := SplitFilename(doc.CoreFile, opts.Format)
		path := filepath.Join(opts.OutDir, filename)

		if err := writeDocumentFile(doc.Object, path, opts.Format); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		Debug("wrote core file",
			"core_file", doc.CoreFile,
			"file", path,
		)
	}

	return nil
}

// SplitFilename returns the on-disk filename for a core-file document.
func SplitFilename(coreFile string, format OutputFormat) string {
	ext := ".json"
	if format == FormatYAML {
		ext = ".yaml"
	}
	return sanitizeName(strings.ToLower(coreFile)) + ext
}

// sanitizeName makes a name safe for use in filenames.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "",
		"<", "",
		">", "",
		"|", "-",
	)
	return replacer.Replace(name)
}

// writeDocumentFile writes a single document to a file.
func writeDocumentFile(doc map[string]any, destPath string, format OutputFormat) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteDocument(doc, format, f)
}
