package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(0), Align(0, 256))
	assert.Equal(t, uint64(256), Align(1, 256))
	assert.Equal(t, uint64(256), Align(256, 256))
	assert.Equal(t, uint64(512), Align(257, 256))
	assert.Equal(t, uint64(8), Align(5, 4))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes[uint32](nil))

	data := []uint32{0x04030201, 0x08070605}
	raw := SliceToBytes(data)
	require.Len(t, raw, 8)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, raw)
}

func TestStructToBytes(t *testing.T) {
	type packed struct {
		A uint32
		B uint32
	}
	v := packed{A: 1, B: 2}
	raw := StructToBytes(&v)
	require.Len(t, raw, 8)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, raw)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "a", Coalesce("", "a", "b"))
	assert.Equal(t, 3, Coalesce(3, 5))
	assert.Equal(t, 0, Coalesce[int]())
	assert.Equal(t, "", Coalesce("", ""))
}
