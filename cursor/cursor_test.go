package cursor_test

import (
	"testing"

	"github.com/dnp3go/dnp3/cursor"
	"github.com/stretchr/testify/require"
)

func TestReaderPrimitivesRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	w := cursor.NewWriter(buf)
	require.NoError(t, w.U8(0x7A))
	require.NoError(t, w.U16(0xBEEF))
	require.NoError(t, w.U32(0xDEADBEEF))
	require.NoError(t, w.U48(0x0001_0203_0405))
	require.NoError(t, w.I16(-100))
	require.NoError(t, w.I32(-100000))
	require.NoError(t, w.F32(3.5))
	require.NoError(t, w.F64(-2.25))
	require.NoError(t, w.WriteBytes([]byte{1, 2, 3}))

	r := cursor.NewReader(w.Bytes())
	u8, err := r.U8()
	require.NoError(t, err)
	require.Equal(t, byte(0x7A), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u48, err := r.U48()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0001_0203_0405), u48)

	i16, err := r.I16()
	require.NoError(t, err)
	require.Equal(t, int16(-100), i16)

	i32, err := r.I32()
	require.NoError(t, err)
	require.Equal(t, int32(-100000), i32)

	f32, err := r.F32()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)

	f64, err := r.F64()
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)

	raw, err := r.Bytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, raw)

	require.Equal(t, 0, r.Len())
}

func TestReaderInsufficientBytes(t *testing.T) {
	r := cursor.NewReader([]byte{1, 2})
	_, err := r.U32()
	require.ErrorIs(t, err, cursor.ErrInsufficientBytes)
}

func TestWriterNoSpace(t *testing.T) {
	w := cursor.NewWriter(make([]byte, 1))
	require.NoError(t, w.U8(1))
	err := w.U8(2)
	require.ErrorIs(t, err, cursor.ErrNoSpace)
}

func TestWriterTransactionRewindsOnFailure(t *testing.T) {
	w := cursor.NewWriter(make([]byte, 4))
	require.NoError(t, w.U8(0xFF))
	err := w.Transaction(func(tw *cursor.Writer) error {
		require.NoError(t, tw.U8(0xAA))
		return cursor.ErrNoSpace
	})
	require.Error(t, err)
	require.Equal(t, 1, w.Len())
	require.Equal(t, []byte{0xFF}, w.Bytes())
}

func TestReservePatchesCountAfterItemsWritten(t *testing.T) {
	w := cursor.NewWriter(make([]byte, 8))
	patch, err := w.Reserve(2)
	require.NoError(t, err)

	count := 0
	for _, v := range []byte{10, 20, 30} {
		require.NoError(t, w.U8(v))
		count++
	}
	require.NoError(t, patch([]byte{byte(count), 0}))

	got := w.Bytes()
	require.Equal(t, []byte{3, 0, 10, 20, 30}, got)
}
