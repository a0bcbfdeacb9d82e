package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

func TestProtobufEncodeRequestWireBytes(t *testing.T) {
	c := NewProtobufCodec()

	tests := []struct {
		name string
		req  *protocol.Request
		want []byte
	}{
		{"echo", protocol.NewEchoRequest("hi"), []byte{0x0a, 0x04, 0x0a, 0x02, 'h', 'i'}},
		{"empty echo", protocol.NewEchoRequest(""), []byte{0x0a, 0x00}},
		{"add", protocol.NewAddRequest(2, 3), []byte{0x12, 0x04, 0x08, 0x02, 0x10, 0x03}},
		{"add zero", protocol.NewAddRequest(0, 0), []byte{0x12, 0x00}},
		{"unset", &protocol.Request{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.EncodeRequest(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProtobufEncodeResponseWireBytes(t *testing.T) {
	c := NewProtobufCodec()

	got, err := c.EncodeResponse(protocol.NewAddResponse(5))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x02, 0x08, 0x05}, got)

	got, err = c.EncodeResponse(protocol.NewEchoResponse("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x04, 0x0a, 0x02, 'h', 'i'}, got)
}

func TestProtobufDecodeRequest(t *testing.T) {
	c := NewProtobufCodec()

	tests := []struct {
		name string
		data []byte
		want *protocol.Request
	}{
		{"echo", []byte{0x0a, 0x04, 0x0a, 0x02, 'h', 'i'}, protocol.NewEchoRequest("hi")},
		{"add", []byte{0x12, 0x04, 0x08, 0x02, 0x10, 0x03}, protocol.NewAddRequest(2, 3)},
		{"empty buffer is unset", []byte{}, &protocol.Request{}},
		{"unknown field skipped", []byte{0x18, 0x01}, &protocol.Request{}},
		{"unknown field before echo", []byte{0x18, 0x01, 0x0a, 0x00}, protocol.NewEchoRequest("")},
		{"last variant wins", []byte{0x0a, 0x00, 0x12, 0x02, 0x08, 0x07}, protocol.NewAddRequest(7, 0)},
		{"repeated add merges", []byte{0x12, 0x02, 0x08, 0x05, 0x12, 0x02, 0x10, 0x07}, protocol.NewAddRequest(5, 7)},
		{"repeated add later field overrides", []byte{0x12, 0x02, 0x08, 0x05, 0x12, 0x02, 0x08, 0x09}, protocol.NewAddRequest(9, 0)},
		{"repeated echo merges", []byte{0x0a, 0x03, 0x0a, 0x01, 'a', 0x0a, 0x00}, protocol.NewEchoRequest("a")},
		{"switching variant starts fresh", []byte{0x12, 0x02, 0x08, 0x05, 0x0a, 0x00, 0x12, 0x02, 0x10, 0x07}, protocol.NewAddRequest(0, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecodeRequest(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProtobufDecodeRequestMalformed(t *testing.T) {
	c := NewProtobufCodec()

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated tag", []byte{0xff}},
		{"field number zero", []byte{0x00}},
		{"length past end", []byte{0x0a, 0x05, 0x01}},
		{"truncated nested varint", []byte{0x12, 0x02, 0x08, 0xff}},
		{"invalid utf8", []byte{0x0a, 0x03, 0x0a, 0x01, 0xff}},
		{"garbage", []byte{0xff, 0xff, 0xff, 0xff}},
		{"echo field as varint", []byte{0x08, 0x01}},
		{"add field as varint", []byte{0x10, 0x01}},
		{"add operand as bytes", []byte{0x12, 0x02, 0x0a, 0x00}},
		{"echo content as varint", []byte{0x0a, 0x02, 0x08, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecodeRequest(tt.data)
			assert.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestProtobufDecodeResponseMergesAndRejectsWireType(t *testing.T) {
	c := NewProtobufCodec()

	got, err := c.DecodeResponse([]byte{0x12, 0x02, 0x08, 0x05, 0x12, 0x00})
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddResponse(5), got)

	_, err = c.DecodeResponse([]byte{0x10, 0x05})
	assert.ErrorIs(t, err, errWireType)
}

func TestProtobufInt32Boundaries(t *testing.T) {
	c := NewProtobufCodec()

	for _, v := range []int32{math.MinInt32, -1, 1, math.MaxInt32} {
		data, err := c.EncodeRequest(protocol.NewAddRequest(v, v))
		require.NoError(t, err)

		got, err := c.DecodeRequest(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.NewAddRequest(v, v), got)

		data, err = c.EncodeResponse(protocol.NewAddResponse(v))
		require.NoError(t, err)

		resp, err := c.DecodeResponse(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.NewAddResponse(v), resp)
	}
}

func TestJSONCodec(t *testing.T) {
	c := NewJSONCodec()

	data, err := c.EncodeRequest(protocol.NewEchoRequest("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo_message":{"content":"hi"}}`, string(data))

	req, err := c.DecodeRequest([]byte(`{"add_request":{"a":2,"b":3}}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddRequest(2, 3), req)

	req, err = c.DecodeRequest([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.KindUnset, req.Kind())

	_, err = c.DecodeRequest([]byte(`{"echo_message":{},"add_request":{}}`))
	assert.ErrorIs(t, err, ErrMultipleVariants)

	_, err = c.DecodeRequest([]byte(`{"echo_message":`))
	assert.Error(t, err)

	data, err = c.EncodeResponse(protocol.NewAddResponse(5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"add_response":{"result":5}}`, string(data))
}

func TestCompressedCodec(t *testing.T) {
	c := For(protocol.CodecTypeProtobuf, protocol.CompressTypeGzip)
	assert.Equal(t, "protobuf+gzip", c.Name())

	data, err := c.EncodeRequest(protocol.NewEchoRequest("hello"))
	require.NoError(t, err)

	req, err := c.DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoRequest("hello"), req)

	_, err = c.DecodeRequest([]byte{0x0a, 0x00})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, "protobuf", Get(protocol.CodecTypeProtobuf).Name())
	assert.Equal(t, "json", Get(protocol.CodecTypeJSON).Name())
	assert.Equal(t, "protobuf", GetOrDefault(protocol.CodecType(0x7f)).Name())
	assert.Len(t, List(), 2)
	assert.Same(t, Get(protocol.CodecTypeJSON), For(protocol.CodecTypeJSON, protocol.CompressTypeNone))

	assert.Panics(t, func() { Register(protocol.CodecTypeJSON, NewJSONCodec()) })
}
