// Package api holds the wire contract shared by the Connect services.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// JSONCodec marshals plain Go structs as JSON under the "json" codec name,
// so that Connect clients speaking application/json interoperate.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}

// WithJSON registers JSONCodec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(JSONCodec{})
}
