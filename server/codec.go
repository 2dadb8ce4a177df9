package server

import (
	"github.com/goccy/go-json"
)

// jsonCodec lets Connect carry plain Go structs as application/json
// messages. It replaces Connect's default "json" codec, which only
// accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
