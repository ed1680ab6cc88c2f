package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/edmsql/internal/edm"
)

// LoadDocument reads a catalog document. Directories and .cue files are
// read as CUE; .yaml, .yml and .json files as YAML.
func LoadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog not found: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml", ".json":
		return LoadYAML(path)
	}
	return nil, fmt.Errorf("unsupported catalog file %s: want .cue, .yaml, .yml or .json", path)
}

// Load reads, validates and resolves the catalog at path.
func Load(path string) (*edm.Model, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	m, err := Build(doc)
	if err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded", "path", path, "namespace", doc.Namespace, "types", len(doc.Types))
	return m, nil
}
