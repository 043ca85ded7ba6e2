// Package mapfile reads and writes mapping documents. The format follows
// the file extension: .json is JSON, anything else YAML.
package mapfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"schema-mapper/internal/mapping"
)

const Version = 1

var ErrUnsupportedVersion = errors.New("unsupported mapping document version")

type Source struct {
	Driver string `json:"driver" yaml:"driver"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

type Target struct {
	Dialect string `json:"dialect" yaml:"dialect"`
}

type Document struct {
	Version int              `json:"version" yaml:"version"`
	Source  Source           `json:"source" yaml:"source"`
	Target  Target           `json:"target" yaml:"target"`
	Tables  []*mapping.Table `json:"tables" yaml:"tables"`
}

// Table finds a table mapping by id or, failing that, by target name.
func (d *Document) Table(ref string) (*mapping.Table, bool) {
	for _, t := range d.Tables {
		if t.ID == ref {
			return t, true
		}
	}
	for _, t := range d.Tables {
		if strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	return nil, false
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	var doc Document
	if isJSON(path) {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return &doc, nil
}

func Encode(doc *Document, asJSON bool) ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = Version
	}
	if asJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes doc next to path and renames it into place, so readers never
// see a half-written document.
func Save(path string, doc *Document) error {
	data, err := Encode(doc, isJSON(path))
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	return nil
}
