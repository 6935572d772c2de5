package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
)

// Export returns the JSON stored at key, indented for reading. Missing or
// unreadable values export as an empty array.
func Export(ctx context.Context, s Store, key string) ([]byte, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte("[]"), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		slog.Warn("exporting unreadable value as empty", "key", key, "error", &DecodeError{Key: key, Err: err})
		return []byte("[]"), nil
	}
	return buf.Bytes(), nil
}
