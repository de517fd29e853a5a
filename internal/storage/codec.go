package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Entry is one decoded record. Err is set when the record could not be
// decoded at all; the rest of the file may still be usable.
type Entry struct {
	Pos    int
	Record Record
	Err    error
}

// Codec serializes the full task list. Decode returns an error only when
// the file as a whole is unreadable.
type Codec interface {
	Name() string
	Encode(w io.Writer, records []Record) error
	Decode(r io.Reader) ([]Entry, error)
}

// Supported codec names.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatCBOR = "cbor"
	FormatYAML = "yaml"
)

// CompressedSuffix marks a zstd-compressed task file, e.g. tasks.json.zst.
const CompressedSuffix = ".zst"

// CodecFor returns the codec registered under name.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatCSV, "":
		return csvCodec{}, nil
	case FormatJSON:
		return newJSONCodec()
	case FormatCBOR:
		return newCBORCodec()
	case FormatYAML, "yml":
		return yamlCodec{}, nil
	}
	return nil, fmt.Errorf("unknown task file format %q (want csv, json, cbor or yaml)", name)
}

// FormatForPath infers the format from a file extension, defaulting to CSV.
// A trailing .zst is ignored.
func FormatForPath(path string) string {
	path = strings.TrimSuffix(path, CompressedSuffix)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".cbor":
		return FormatCBOR
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// IsCompressed reports whether path names a zstd-compressed task file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}
