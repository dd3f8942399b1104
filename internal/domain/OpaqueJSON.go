package domain

import "bytes"

// OpaqueJSON is a JSON document stored verbatim. Nothing branches on its shape.
type OpaqueJSON []byte

// Value returns the document to bind as a query argument; empty becomes NULL.
func (o OpaqueJSON) Value() any {
	if len(bytes.TrimSpace(o)) == 0 || bytes.Equal(bytes.TrimSpace(o), []byte("null")) {
		return nil
	}
	return string(o)
}

func (o OpaqueJSON) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

func (o *OpaqueJSON) UnmarshalJSON(data []byte) error {
	*o = append((*o)[:0], data...)
	return nil
}
