package serviceutil

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec lets connect handlers and clients exchange plain Go structs as JSON, it replaces
// connect's default "json" codec which only accepts protobuf messages.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (JSONCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
