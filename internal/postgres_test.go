package internal

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompression(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte("wikipedia "), 1000)

	compressed := _buffers.Get()
	defer compressed.Free()
	require.NoError(t, compress(bytes.NewReader(plaintext), compressed))
	assert.Less(t, compressed.Len(), len(plaintext))

	out := _buffers.Get()
	defer out.Free()
	require.NoError(t, decompress(context.Background(), bytes.NewReader(compressed.Bytes()), out))
	assert.Equal(t, plaintext, out.Bytes())
}
