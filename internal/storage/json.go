package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"

	"github.com/nibzard/tasklist/internal/utils"
)

// SchemaVersion is written into every JSON and CBOR task file.
const SchemaVersion = 1

const schemaURL = "https://github.com/nibzard/tasklist/schema/tasks.schema.json"

//go:embed schema/tasks.schema.json
var taskSchema []byte

// Schema returns the JSON Schema that JSON task files are checked against.
func Schema() []byte {
	return bytes.Clone(taskSchema)
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(taskSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

type document struct {
	SchemaVersion int      `json:"schema_version" yaml:"schema_version"`
	Tasks         []Record `json:"tasks" yaml:"tasks"`
}

type rawDocument struct {
	SchemaVersion int               `json:"schema_version"`
	Tasks         []json.RawMessage `json:"tasks"`
}

type jsonCodec struct {
	schema *jsonschema.Schema
}

func newJSONCodec() (Codec, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return jsonCodec{schema: schema}, nil
}

func (jsonCodec) Name() string { return FormatJSON }

func (jsonCodec) Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(document{SchemaVersion: SchemaVersion, Tasks: records})
}

// Decode accepts comments and trailing commas, which hand-edited files
// tend to pick up.
func (c jsonCodec) Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = jsonc.ToJSON(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return nil, &CorruptRecordError{Err: err}
	}
	bad, err := c.validate(instance)
	if err != nil {
		return nil, err
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptRecordError{Err: err}
	}
	entries := make([]Entry, 0, len(doc.Tasks))
	for i, raw := range doc.Tasks {
		entry := Entry{Pos: i + 1}
		if err, ok := bad[i]; ok {
			entry.Err = err
		} else if err := json.Unmarshal(raw, &entry.Record); err != nil {
			entry.Err = err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// validate checks instance against the schema. Violations inside a single
// task are returned per task index so a skip policy can drop just that
// task; anything else fails the whole file.
func (c jsonCodec) validate(instance any) (map[int]error, error) {
	err := c.schema.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, &CorruptRecordError{Err: err}
	}

	var leaves []*jsonschema.ValidationError
	collectSchemaLeaves(ve, &leaves)
	bad := make(map[int]error)
	for _, leaf := range leaves {
		tokens := utils.JSONPointerTokens(leaf.InstanceLocation)
		if len(tokens) >= 2 && tokens[0] == "tasks" {
			if i, err := strconv.Atoi(tokens[1]); err == nil {
				if _, seen := bad[i]; !seen {
					bad[i] = &CorruptRecordError{Field: strings.Join(tokens[2:], "."), Err: errors.New(leaf.Message)}
				}
				continue
			}
		}
		return nil, &CorruptRecordError{
			Field: utils.JSONPointerToPath(leaf.InstanceLocation),
			Err:   errors.New(leaf.Message),
		}
	}
	return bad, nil
}

// collectSchemaLeaves gathers the innermost validation errors.
func collectSchemaLeaves(err *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*out = append(*out, err)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaLeaves(cause, out)
	}
}
