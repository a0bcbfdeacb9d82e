// Kunhua Huang 2025

package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// ErrMultipleVariants is returned when an envelope sets more than one variant
// in a format that cannot express "last one wins".
var ErrMultipleVariants = errors.New("envelope sets more than one variant")

// Codec converts envelopes to and from bytes. Decode either returns a fully
// populated envelope or an error, never a partial value.
type Codec interface {
	EncodeRequest(req *protocol.Request) ([]byte, error)
	DecodeRequest(data []byte) (*protocol.Request, error)
	EncodeResponse(resp *protocol.Response) ([]byte, error)
	DecodeResponse(data []byte) (*protocol.Response, error)
	Name() string
}

var registry = struct {
	codecs map[protocol.CodecType]Codec
	sync.RWMutex
}{
	codecs: make(map[protocol.CodecType]Codec),
}

func Register(typ protocol.CodecType, codec Codec) {
	registry.Lock()
	defer registry.Unlock()

	if codec == nil {
		panic(fmt.Sprintf("codec: Register codec is nil for type %d", typ))
	}

	if _, exists := registry.codecs[typ]; exists {
		panic(fmt.Sprintf("codec: Register called twice for type %d", typ))
	}

	registry.codecs[typ] = codec
}

func Get(typ protocol.CodecType) Codec {
	registry.RLock()
	defer registry.RUnlock()

	return registry.codecs[typ]
}

func GetOrDefault(typ protocol.CodecType) Codec {
	codec := Get(typ)
	if codec == nil {
		codec = Get(protocol.CodecTypeProtobuf)
	}
	return codec
}

func List() []protocol.CodecType {
	registry.RLock()
	defer registry.RUnlock()

	types := make([]protocol.CodecType, 0, len(registry.codecs))
	for typ := range registry.codecs {
		types = append(types, typ)
	}
	return types
}

// For returns the registered codec for codecType, wrapped with the
// compressor for compressType unless it is CompressTypeNone.
func For(codecType protocol.CodecType, compressType protocol.CompressType) Codec {
	c := GetOrDefault(codecType)
	if compressType == protocol.CompressTypeNone {
		return c
	}
	return NewCompressedCodec(c, GetCompressorOrNone(compressType))
}

// ----------------- Compressed Codec -----------------

type CompressedCodec struct {
	codec      Codec
	compressor Compressor
}

var _ Codec = (*CompressedCodec)(nil)

func NewCompressedCodec(codec Codec, compressor Compressor) Codec {
	return &CompressedCodec{
		codec:      codec,
		compressor: compressor,
	}
}

func (c *CompressedCodec) EncodeRequest(req *protocol.Request) ([]byte, error) {
	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	return c.compress(data)
}

func (c *CompressedCodec) DecodeRequest(data []byte) (*protocol.Request, error) {
	decompressed, err := c.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress failed: %w", err)
	}
	return c.codec.DecodeRequest(decompressed)
}

func (c *CompressedCodec) EncodeResponse(resp *protocol.Response) ([]byte, error) {
	data, err := c.codec.EncodeResponse(resp)
	if err != nil {
		return nil, err
	}
	return c.compress(data)
}

func (c *CompressedCodec) DecodeResponse(data []byte) (*protocol.Response, error) {
	decompressed, err := c.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress failed: %w", err)
	}
	return c.codec.DecodeResponse(decompressed)
}

func (c *CompressedCodec) compress(data []byte) ([]byte, error) {
	compressed, err := c.compressor.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress failed: %w", err)
	}
	return compressed, nil
}

func (c *CompressedCodec) Name() string {
	return fmt.Sprintf("%s+%s", c.codec.Name(), c.compressor.Name())
}
