package storage

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborCodec writes the same document as the JSON codec using Core
// Deterministic Encoding (RFC 8949 §4.2), so equal task lists produce
// identical files.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

type rawCBORDocument struct {
	SchemaVersion int               `json:"schema_version"`
	Tasks         []cbor.RawMessage `json:"tasks"`
}

func newCBORCodec() (Codec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}
	return cborCodec{enc: enc, dec: dec}, nil
}

func (cborCodec) Name() string { return FormatCBOR }

func (c cborCodec) Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := c.enc.Marshal(document{SchemaVersion: SchemaVersion, Tasks: records})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (c cborCodec) Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var doc rawCBORDocument
	if err := c.dec.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptRecordError{Err: err}
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, &CorruptRecordError{
			Field: "schema_version",
			Err:   fmt.Errorf("unsupported version %d", doc.SchemaVersion),
		}
	}
	entries := make([]Entry, 0, len(doc.Tasks))
	for i, raw := range doc.Tasks {
		entry := Entry{Pos: i + 1}
		if err := c.dec.Unmarshal(raw, &entry.Record); err != nil {
			entry.Err = err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
