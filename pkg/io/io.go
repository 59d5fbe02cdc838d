package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackplan/pkg/depgraph"
	"github.com/matzehuels/stackplan/pkg/task"
)

// Format is a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported dataset extension %q (use .json, .yaml or .yml)", filepath.Ext(path))
}

// ReadJSON decodes and validates a JSON dataset. ReadJSON does not close r.
func ReadJSON(r io.Reader) (task.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("read: %w", err)
	}
	if err := validateDocument(data); err != nil {
		return task.Snapshot{}, err
	}

	var s task.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return task.Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	return checked(s)
}

// ReadYAML decodes and validates a YAML dataset. ReadYAML does not close r.
func ReadYAML(r io.Reader) (task.Snapshot, error) {
	var s task.Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return task.Snapshot{}, fmt.Errorf("decode: %w", err)
	}

	// Re-encode so YAML input goes through the same schema as JSON.
	if s.Tasks == nil {
		s.Tasks = []task.Task{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("encode: %w", err)
	}
	if err := validateDocument(data); err != nil {
		return task.Snapshot{}, err
	}
	return checked(s)
}

func checked(s task.Snapshot) (task.Snapshot, error) {
	if s.Tasks == nil {
		s.Tasks = []task.Task{}
	}
	if err := s.Validate(); err != nil {
		return task.Snapshot{}, fmt.Errorf("dataset: %w", err)
	}
	if err := Acyclic(s); err != nil {
		return task.Snapshot{}, fmt.Errorf("dataset: %w", err)
	}
	return s, nil
}

// Acyclic returns a *depgraph.CycleError naming the loop when the
// snapshot's merged edge set contains a cycle.
func Acyclic(s task.Snapshot) error {
	g, err := depgraph.FromSnapshot(s)
	if err != nil {
		return err
	}
	return g.Validate()
}

// WriteJSON encodes a dataset as indented JSON.
func WriteJSON(s task.Snapshot, w io.Writer) error {
	if s.Tasks == nil {
		s.Tasks = []task.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes a dataset as YAML.
func WriteYAML(s task.Snapshot, w io.Writer) error {
	if s.Tasks == nil {
		s.Tasks = []task.Task{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Read decodes a dataset in the given format.
func Read(r io.Reader, f Format) (task.Snapshot, error) {
	if f == FormatYAML {
		return ReadYAML(r)
	}
	return ReadJSON(r)
}

// Write encodes a dataset in the given format.
func Write(s task.Snapshot, w io.Writer, f Format) error {
	if f == FormatYAML {
		return WriteYAML(s, w)
	}
	return WriteJSON(s, w)
}

// ImportFile reads a dataset file, choosing the format by extension.
func ImportFile(path string) (task.Snapshot, error) {
	f, err := FormatOf(path)
	if err != nil {
		return task.Snapshot{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	s, err := Read(file, f)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ExportFile writes a dataset file, choosing the format by extension. The
// file is replaced atomically.
func ExportFile(s task.Snapshot, path string) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Write(s, &buf, f); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
