package objects_test

import (
	"testing"

	"github.com/dnp3go/dnp3/objects"
	"github.com/stretchr/testify/require"
)

func TestControlCodeRoundTrip(t *testing.T) {
	c := objects.ControlCode{Op: objects.OpLatchOn, Queue: true, Clear: true, TCC: objects.TCCTrip}
	got := objects.ParseControlCode(c.Value())
	require.Equal(t, c, got)
}

func TestDoubleBitStateRoundTrip(t *testing.T) {
	f := objects.Flags(0).WithDoubleBit(objects.DoubleBitOn) | objects.Online
	require.Equal(t, objects.DoubleBitOn, f.DoubleBit())
	require.True(t, f.IsOnline())
}

func TestFlagsBitStateRoundTrip(t *testing.T) {
	f := objects.Online.WithState(true)
	require.True(t, f.State())
	f = f.WithState(false)
	require.False(t, f.State())
}
