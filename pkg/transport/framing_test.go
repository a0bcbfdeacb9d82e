package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

func TestRawFramerOneReadOneMessage(t *testing.T) {
	f := NewFramer(protocol.FramingRaw, 0)

	chunk := []byte{1, 2, 3}
	payloads, err := f.Feed(chunk)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, []byte{1, 2, 3}, payloads[0])

	// the payload must not alias the read buffer
	chunk[0] = 9
	assert.Equal(t, byte(1), payloads[0][0])

	payloads, err = f.Feed(nil)
	require.NoError(t, err)
	assert.Empty(t, payloads)

	assert.Equal(t, []byte{4, 5}, f.Frame([]byte{4, 5}))
}

func TestLengthPrefixFramerSplitAndCoalesced(t *testing.T) {
	f := NewLengthPrefixFramer(64)

	first := f.Frame([]byte("hello"))
	second := f.Frame([]byte("hi"))
	assert.Equal(t, []byte{0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}, first)

	payloads, err := f.Feed(first[:3])
	require.NoError(t, err)
	assert.Empty(t, payloads)

	payloads, err = f.Feed(first[3:7])
	require.NoError(t, err)
	assert.Empty(t, payloads)
	assert.Equal(t, 7, f.Buffered())

	stream := append(append([]byte{}, first[7:]...), second...)
	payloads, err = f.Feed(stream)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, "hello", string(payloads[0]))
	assert.Equal(t, "hi", string(payloads[1]))
	assert.Zero(t, f.Buffered())
}

func TestLengthPrefixFramerEmptyPayload(t *testing.T) {
	f := NewLengthPrefixFramer(0)

	payloads, err := f.Feed(f.Frame(nil))
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Empty(t, payloads[0])
}

func TestLengthPrefixFramerTooLarge(t *testing.T) {
	f := NewLengthPrefixFramer(4)

	_, err := f.Feed([]byte{0, 0, 0, 5, 1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Zero(t, f.Buffered())
}
