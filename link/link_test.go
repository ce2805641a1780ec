package link_test

import (
	"testing"

	"github.com/dnp3go/dnp3/link"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := link.Frame{
		Control: link.Control{
			DIR: true, PRM: true, FCB: false, FCVorDFC: true,
			Function: link.FuncUnconfirmedUserData,
		},
		Destination: 1,
		Source:      1024,
		UserData:    make([]byte, 40),
	}
	for i := range f.UserData {
		f.UserData[i] = byte(i)
	}

	wire, err := link.Encode(f)
	require.NoError(t, err)

	got, n, err := link.Decode(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), n)
	require.Equal(t, f.Control, got.Control)
	require.Equal(t, f.Destination, got.Destination)
	require.Equal(t, f.Source, got.Source)
	require.Equal(t, f.UserData, got.UserData)
}

func TestEncodeDecodeEmptyUserData(t *testing.T) {
	f := link.Frame{
		Control:     link.Control{PRM: true, Function: link.FuncResetLinkStates},
		Destination: 1,
		Source:      4,
	}
	wire, err := link.Encode(f)
	require.NoError(t, err)
	require.Equal(t, link.HeaderSize, len(wire))

	got, n, err := link.Decode(wire)
	require.NoError(t, err)
	require.Equal(t, link.HeaderSize, n)
	require.Empty(t, got.UserData)
	require.Equal(t, link.FuncResetLinkStates, got.Control.Function)
}

// A minimal ResetLinkStates frame, transcribed verbatim.
func TestMinimalResetLinkStatesFrame(t *testing.T) {
	wire := []byte{0x05, 0x64, 0x05, 0xC0, 0x01, 0x00, 0x00, 0x04, 0xE9, 0x21}
	got, n, err := link.Decode(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), n)
	require.Equal(t, link.Address(1), got.Destination)
	require.Equal(t, link.Address(1024), got.Source)
	require.True(t, got.Control.PRM)
	require.True(t, got.Control.DIR)
	require.Equal(t, link.FuncResetLinkStates, got.Control.Function)
}

func TestCRCBitFlipRejected(t *testing.T) {
	base := []byte{0x05, 0x64, 0x05, 0xC0, 0x01, 0x00, 0x00, 0x04, 0xE9, 0x21}
	for byteIdx := 0; byteIdx < 8; byteIdx++ {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), base...)
			flipped[byteIdx] ^= 1 << bit
			_, _, err := link.Decode(flipped)
			require.Error(t, err, "byte %d bit %d should be rejected", byteIdx, bit)
		}
	}
}

func TestParserResyncsAfterGarbage(t *testing.T) {
	f := link.Frame{
		Control:     link.Control{PRM: true, Function: link.FuncTestLinkStates},
		Destination: 2,
		Source:      3,
		UserData:    []byte{1, 2, 3},
	}
	wire, err := link.Encode(f)
	require.NoError(t, err)

	garbage := []byte{0xFF, 0xFF, 0x05, 0x00, 0x64}
	stream := append(append([]byte{}, garbage...), wire...)

	p := link.NewParser(link.Discard)
	frames, err := p.Feed(stream)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, f.UserData, frames[0].UserData)
}

func TestParserSplitAcrossFeeds(t *testing.T) {
	f := link.Frame{
		Control:     link.Control{PRM: true, Function: link.FuncConfirmedUserData},
		Destination: 7,
		Source:      9,
		UserData:    make([]byte, 30),
	}
	wire, err := link.Encode(f)
	require.NoError(t, err)

	p := link.NewParser(link.Discard)
	mid := len(wire) / 2
	frames, err := p.Feed(wire[:mid])
	require.NoError(t, err)
	require.Empty(t, frames)

	frames, err = p.Feed(wire[mid:])
	require.NoError(t, err)
	require.Len(t, frames, 1)
}

func TestParserCloseModeReportsError(t *testing.T) {
	p := link.NewParser(link.Close)
	bad := []byte{0x05, 0x64, 0x05, 0xC0, 0x01, 0x00, 0x04, 0x00, 0x00, 0x00}
	_, err := p.Feed(bad)
	require.Error(t, err)
}

func TestBroadcastAddressRecognition(t *testing.T) {
	require.True(t, link.BroadcastAddress.IsBroadcast())
	require.True(t, link.ReservedBroadcast1.IsBroadcast())
	require.False(t, link.Address(42).IsBroadcast())
}
