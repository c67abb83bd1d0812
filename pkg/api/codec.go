package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name. It replaces Connect's protobuf JSON
// codec for the "application/json" content type.
const CodecName = "json"

// Codec marshals plain Go structs as JSON for Connect handlers and clients.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", message, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("unmarshal %T: %w", message, err)
	}
	return nil
}
