package codec

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// Field numbers of the envelope schema:
//
//	message ClientMessage { oneof message { EchoMessage echo_message = 1; AddRequest add_request = 2; } }
//	message ServerMessage { oneof message { EchoMessage echo_message = 1; AddResponse add_response = 2; } }
//	message EchoMessage   { string content = 1; }
//	message AddRequest    { int32 a = 1; int32 b = 2; }
//	message AddResponse   { int32 result = 1; }
const (
	fieldEchoMessage protowire.Number = 1
	fieldAddRequest  protowire.Number = 2
	fieldAddResponse protowire.Number = 2

	fieldEchoContent protowire.Number = 1
	fieldAddA        protowire.Number = 1
	fieldAddB        protowire.Number = 2
	fieldAddResult   protowire.Number = 1
)

var (
	errInvalidUTF8 = errors.New("string field contains invalid UTF-8")
	errWireType    = errors.New("wrong wire type for known field")
)

type ProtobufCodec struct{}

var _ Codec = (*ProtobufCodec)(nil)

func NewProtobufCodec() Codec {
	return &ProtobufCodec{}
}

func (c *ProtobufCodec) EncodeRequest(req *protocol.Request) ([]byte, error) {
	if req == nil {
		return nil, nil
	}

	switch m := req.Message.(type) {
	case nil:
		return []byte{}, nil
	case *protocol.EchoMessage:
		return appendMessage(nil, fieldEchoMessage, appendEcho(nil, m)), nil
	case *protocol.AddRequest:
		var body []byte
		body = appendInt32(body, fieldAddA, m.A)
		body = appendInt32(body, fieldAddB, m.B)
		return appendMessage(nil, fieldAddRequest, body), nil
	default:
		return nil, fmt.Errorf("protobuf codec: unsupported request variant %T", m)
	}
}

func (c *ProtobufCodec) EncodeResponse(resp *protocol.Response) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}

	switch m := resp.Message.(type) {
	case nil:
		return []byte{}, nil
	case *protocol.EchoMessage:
		return appendMessage(nil, fieldEchoMessage, appendEcho(nil, m)), nil
	case *protocol.AddResponse:
		return appendMessage(nil, fieldAddResponse, appendInt32(nil, fieldAddResult, m.Result)), nil
	default:
		return nil, fmt.Errorf("protobuf codec: unsupported response variant %T", m)
	}
}

func (c *ProtobufCodec) DecodeRequest(data []byte) (*protocol.Request, error) {
	req := &protocol.Request{}

	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldEchoMessage:
			// a repeated occurrence of the held variant merges into it
			echo, ok := req.Message.(*protocol.EchoMessage)
			if !ok {
				echo = &protocol.EchoMessage{}
			}
			n, err := consumeMessage(typ, b, func(body []byte) error { return decodeEcho(body, echo) })
			if err != nil {
				return 0, err
			}
			req.Message = echo
			return n, nil

		case fieldAddRequest:
			add, ok := req.Message.(*protocol.AddRequest)
			if !ok {
				add = &protocol.AddRequest{}
			}
			n, err := consumeMessage(typ, b, func(body []byte) error { return decodeAddRequest(body, add) })
			if err != nil {
				return 0, err
			}
			req.Message = add
			return n, nil
		}

		return 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("protobuf codec: decode request: %w", err)
	}

	return req, nil
}

func (c *ProtobufCodec) DecodeResponse(data []byte) (*protocol.Response, error) {
	resp := &protocol.Response{}

	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldEchoMessage:
			echo, ok := resp.Message.(*protocol.EchoMessage)
			if !ok {
				echo = &protocol.EchoMessage{}
			}
			n, err := consumeMessage(typ, b, func(body []byte) error { return decodeEcho(body, echo) })
			if err != nil {
				return 0, err
			}
			resp.Message = echo
			return n, nil

		case fieldAddResponse:
			add, ok := resp.Message.(*protocol.AddResponse)
			if !ok {
				add = &protocol.AddResponse{}
			}
			n, err := consumeMessage(typ, b, func(body []byte) error { return decodeAddResponse(body, add) })
			if err != nil {
				return 0, err
			}
			resp.Message = add
			return n, nil
		}

		return 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("protobuf codec: decode response: %w", err)
	}

	return resp, nil
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}

// consumeFields walks every field in b. field returns the number of value
// bytes it consumed, or 0 to have the field skipped as unknown.
func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}

		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

// consumeMessage reads one length-delimited embedded message and hands its
// body to decode.
func consumeMessage(typ protowire.Type, b []byte, decode func(body []byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, fmt.Errorf("%w: got %d, want bytes", errWireType, typ)
	}
	body, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if err := decode(body); err != nil {
		return 0, err
	}
	return n, nil
}

func decodeEcho(data []byte, echo *protocol.EchoMessage) error {
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldEchoContent {
			return 0, nil
		}
		if typ != protowire.BytesType {
			return 0, fmt.Errorf("%w: content", errWireType)
		}
		s, n := protowire.ConsumeString(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if !utf8.ValidString(s) {
			return 0, errInvalidUTF8
		}
		echo.Content = s
		return n, nil
	})
	if err != nil {
		return fmt.Errorf("echo_message: %w", err)
	}
	return nil
}

func decodeAddRequest(data []byte, add *protocol.AddRequest) error {
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAddA:
			return consumeInt32(typ, b, &add.A)
		case fieldAddB:
			return consumeInt32(typ, b, &add.B)
		}
		return 0, nil
	})
	if err != nil {
		return fmt.Errorf("add_request: %w", err)
	}
	return nil
}

func decodeAddResponse(data []byte, add *protocol.AddResponse) error {
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldAddResult {
			return 0, nil
		}
		return consumeInt32(typ, b, &add.Result)
	})
	if err != nil {
		return fmt.Errorf("add_response: %w", err)
	}
	return nil
}

func consumeInt32(typ protowire.Type, b []byte, dst *int32) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: got %d, want varint", errWireType, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = int32(v)
	return n, nil
}

func appendEcho(b []byte, m *protocol.EchoMessage) []byte {
	if m.Content == "" {
		return b
	}
	b = protowire.AppendTag(b, fieldEchoContent, protowire.BytesType)
	return protowire.AppendString(b, m.Content)
}

// appendInt32 follows proto3 implicit presence: zero values are not written.
func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func init() {
	Register(protocol.CodecTypeProtobuf, NewProtobufCodec())
}
