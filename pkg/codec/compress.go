// Kunhua Huang 2025

package codec

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// MaxDecompressedSize caps how far one payload may inflate.
const MaxDecompressedSize = 4 * 1024 * 1024

var ErrDecompressedTooLarge = errors.New("decompressed payload too large")

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// identity passes payloads through unchanged.
type identity struct{}

func (identity) Compress(data []byte) ([]byte, error)   { return data, nil }
func (identity) Decompress(data []byte) ([]byte, error) { return data, nil }
func (identity) Name() string                           { return "none" }

// GzipCompressor reuses writers across messages; workers share one instance.
type GzipCompressor struct {
	writers sync.Pool
}

var _ Compressor = (*GzipCompressor)(nil)

func NewGzipCompressor(level int) (*GzipCompressor, error) {
	// fail at construction rather than on the first message
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("gzip level %d: %w", level, err)
	}

	g := &GzipCompressor{}
	g.writers.New = func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, level)
		return w
	}
	return g, nil
}

func (g *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := g.writers.Get().(*gzip.Writer)
	defer g.writers.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	if len(out) > MaxDecompressedSize {
		return nil, ErrDecompressedTooLarge
	}
	return out, nil
}

func (g *GzipCompressor) Name() string { return "gzip" }

var compressors sync.Map // protocol.CompressType -> Compressor

// RegisterCompressor panics on nil or a second registration for typ.
func RegisterCompressor(typ protocol.CompressType, c Compressor) {
	if c == nil {
		panic(fmt.Sprintf("codec: nil compressor for %s", typ))
	}
	if _, loaded := compressors.LoadOrStore(typ, c); loaded {
		panic(fmt.Sprintf("codec: compressor %s registered twice", typ))
	}
}

func GetCompressor(typ protocol.CompressType) Compressor {
	c, ok := compressors.Load(typ)
	if !ok {
		return nil
	}
	return c.(Compressor)
}

func GetCompressorOrNone(typ protocol.CompressType) Compressor {
	if c := GetCompressor(typ); c != nil {
		return c
	}
	return identity{}
}

func init() {
	RegisterCompressor(protocol.CompressTypeNone, identity{})

	gz, err := NewGzipCompressor(gzip.DefaultCompression)
	if err != nil {
		panic(err)
	}
	RegisterCompressor(protocol.CompressTypeGzip, gz)
}
