package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlCodec writes the JSON document shape as YAML. Entry positions are
// the line numbers of each task in the file.
type yamlCodec struct{}

type rawYAMLDocument struct {
	SchemaVersion int         `yaml:"schema_version"`
	Tasks         []yaml.Node `yaml:"tasks"`
}

func (yamlCodec) Name() string { return FormatYAML }

func (yamlCodec) Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{SchemaVersion: SchemaVersion, Tasks: records}); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlCodec) Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc rawYAMLDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) && len(te.Errors) > 0 {
			return nil, &CorruptRecordError{Err: errors.New(te.Errors[0])}
		}
		return nil, &CorruptRecordError{Err: err}
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, &CorruptRecordError{
			Field: "schema_version",
			Err:   fmt.Errorf("unsupported version %d", doc.SchemaVersion),
		}
	}
	entries := make([]Entry, 0, len(doc.Tasks))
	for i := range doc.Tasks {
		node := &doc.Tasks[i]
		entry := Entry{Pos: node.Line}
		if err := node.Decode(&entry.Record); err != nil {
			entry.Err = err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
