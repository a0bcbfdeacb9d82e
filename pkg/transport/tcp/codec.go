// Kunhua Huang 2026

package tcp

import (
	"fmt"

	"github.com/ecstasoy/echoadd/pkg/codec"
	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

// ProtocolCodec pairs an envelope codec with a framing mode.
//
// Framing responsibility:
//   - codec.Codec: envelope <-> bytes, no boundaries
//   - transport.Framer: boundaries on the stream, one instance per connection
type ProtocolCodec struct {
	codec        codec.Codec
	codecType    protocol.CodecType
	compressType protocol.CompressType
	framing      protocol.FramingType
	maxFrameSize int
}

func NewProtocolCodec(
	codecType protocol.CodecType,
	compressType protocol.CompressType,
	framing protocol.FramingType,
	maxFrameSize int,
) *ProtocolCodec {
	return &ProtocolCodec{
		codec:        codec.For(codecType, compressType),
		codecType:    codecType,
		compressType: compressType,
		framing:      framing,
		maxFrameSize: maxFrameSize,
	}
}

func (pc *ProtocolCodec) NewFramer() transport.Framer {
	return transport.NewFramer(pc.framing, pc.maxFrameSize)
}

func (pc *ProtocolCodec) Name() string {
	return fmt.Sprintf("%s/%s", pc.codec.Name(), pc.framing)
}

func (pc *ProtocolCodec) EncodeRequest(f transport.Framer, req *protocol.Request) ([]byte, error) {
	data, err := pc.codec.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode request error: %w", err)
	}
	return f.Frame(data), nil
}

func (pc *ProtocolCodec) EncodeResponse(f transport.Framer, resp *protocol.Response) ([]byte, error) {
	data, err := pc.codec.EncodeResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response error: %w", err)
	}
	return f.Frame(data), nil
}

func (pc *ProtocolCodec) DecodeRequest(payload []byte) (*protocol.Request, error) {
	req, err := pc.codec.DecodeRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("decode request error: %w", err)
	}
	return req, nil
}

func (pc *ProtocolCodec) DecodeResponse(payload []byte) (*protocol.Response, error) {
	resp, err := pc.codec.DecodeResponse(payload)
	if err != nil {
		return nil, fmt.Errorf("decode response error: %w", err)
	}
	return resp, nil
}
