// Package loader reads and writes dataset snapshots: the five entity
// collections in a single JSON, JSONC or YAML document.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/contentcrush/crush/pkg/model"
)

// ErrUnsupportedFormat is returned for snapshot formats crush cannot read or write.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Format is a snapshot encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// jsoncHeader is written at the top of JSONC snapshots.
const jsoncHeader = "// crush dataset snapshot\n"

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads a snapshot file, choosing the decoder from its extension.
func Load(path string) (*model.Dataset, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Decode parses a snapshot document.
func Decode(data []byte, f Format) (*model.Dataset, error) {
	var d model.Dataset
	switch f {
	case FormatJSONC:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONC: %w", err)
		}
		data = standardized
		fallthrough
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		retagNumericIDs(&doc)
		if err := doc.Decode(&d); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return &d, nil
}

// idKeys are the mapping keys whose values are entity ids.
var idKeys = map[string]bool{
	"id": true, "entity_id": true, "client_id": true, "project_id": true, "parent_id": true,
}

// retagNumericIDs lets quoted ids such as "42" decode into integer fields,
// matching what the JSON decoder accepts.
func retagNumericIDs(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if idKeys[key.Value] && val.Kind == yaml.ScalarNode && val.Tag == "!!str" {
				if _, err := strconv.ParseInt(strings.TrimSpace(val.Value), 10, 64); err == nil {
					val.Value = strings.TrimSpace(val.Value)
					val.Tag = "!!int"
					val.Style = 0
				}
			}
		}
	}
	for _, c := range n.Content {
		retagNumericIDs(c)
	}
}

// Encode renders d in format f.
func Encode(d *model.Dataset, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	case FormatJSONC:
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		pretty, err := hujson.Format(append([]byte(jsoncHeader), raw...))
		if err != nil {
			return nil, fmt.Errorf("formatting JSONC: %w", err)
		}
		return pretty, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Save writes d to path atomically, encoded by the path's extension.
func Save(path string, d *model.Dataset) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(d, f)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Source is a read-only data source backed by a snapshot file. Every load
// re-reads the file.
type Source struct {
	path string
}

// NewSource returns a Source reading path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the snapshot path.
func (s *Source) Path() string {
	return s.path
}

// LoadDataset reads the snapshot.
func (s *Source) LoadDataset(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.path)
}
