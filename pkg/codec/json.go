// Kunhua Huang 2025

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

type JSONCodec struct{}

var _ Codec = (*JSONCodec)(nil)

func NewJSONCodec() Codec {
	return &JSONCodec{}
}

type wireClientMessage struct {
	EchoMessage *protocol.EchoMessage `json:"echo_message,omitempty"`
	AddRequest  *protocol.AddRequest  `json:"add_request,omitempty"`
}

type wireServerMessage struct {
	EchoMessage *protocol.EchoMessage `json:"echo_message,omitempty"`
	AddResponse *protocol.AddResponse `json:"add_response,omitempty"`
}

func (c *JSONCodec) EncodeRequest(req *protocol.Request) ([]byte, error) {
	var wire wireClientMessage

	if req != nil {
		switch m := req.Message.(type) {
		case nil:
		case *protocol.EchoMessage:
			wire.EchoMessage = m
		case *protocol.AddRequest:
			wire.AddRequest = m
		default:
			return nil, fmt.Errorf("json codec: unsupported request variant %T", m)
		}
	}

	return json.Marshal(wire)
}

func (c *JSONCodec) DecodeRequest(data []byte) (*protocol.Request, error) {
	var wire wireClientMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("json codec: decode request: %w", err)
	}

	req := &protocol.Request{}
	switch {
	case wire.EchoMessage != nil && wire.AddRequest != nil:
		return nil, fmt.Errorf("json codec: decode request: %w", ErrMultipleVariants)
	case wire.EchoMessage != nil:
		req.Message = wire.EchoMessage
	case wire.AddRequest != nil:
		req.Message = wire.AddRequest
	}

	return req, nil
}

func (c *JSONCodec) EncodeResponse(resp *protocol.Response) ([]byte, error) {
	var wire wireServerMessage

	if resp != nil {
		switch m := resp.Message.(type) {
		case nil:
		case *protocol.EchoMessage:
			wire.EchoMessage = m
		case *protocol.AddResponse:
			wire.AddResponse = m
		default:
			return nil, fmt.Errorf("json codec: unsupported response variant %T", m)
		}
	}

	return json.Marshal(wire)
}

func (c *JSONCodec) DecodeResponse(data []byte) (*protocol.Response, error) {
	var wire wireServerMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("json codec: decode response: %w", err)
	}

	resp := &protocol.Response{}
	switch {
	case wire.EchoMessage != nil && wire.AddResponse != nil:
		return nil, fmt.Errorf("json codec: decode response: %w", ErrMultipleVariants)
	case wire.EchoMessage != nil:
		resp.Message = wire.EchoMessage
	case wire.AddResponse != nil:
		resp.Message = wire.AddResponse
	}

	return resp, nil
}

func (c *JSONCodec) Name() string {
	return "json"
}

func init() {
	Register(protocol.CodecTypeJSON, NewJSONCodec())
}
