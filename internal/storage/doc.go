// Package storage persists the task list to a single file.
//
// Three formats share one flat record layout: CSV (the default, one row
// per task under a header), JSON (a versioned document checked against an
// embedded JSON Schema) and CBOR (the JSON document in deterministic
// binary form). The whole file is rewritten on every flush via a temporary
// file and a rename.
package storage
