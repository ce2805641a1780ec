package apdu_test

import (
	"testing"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/stretchr/testify/require"
)

func TestControlRoundTrip(t *testing.T) {
	c := apdu.Control{FIR: true, FIN: true, CON: false, UNS: false, Seq: 5}
	require.Equal(t, c, apdu.ParseControl(c.Value()))
}

func TestNextSeqWrapsModSixteen(t *testing.T) {
	require.EqualValues(t, 0, apdu.NextSeq(15))
	require.EqualValues(t, 6, apdu.NextSeq(5))
}

func TestHeaderParseRejectsShortFragment(t *testing.T) {
	_, err := apdu.ParseHeader([]byte{0xC0})
	require.Error(t, err)
}

func TestIINBitAccessors(t *testing.T) {
	var i apdu.IIN
	i = i.Set1(apdu.IIN1NeedTime).Set2(apdu.IIN2EventBufferOflow)
	require.True(t, i.Has1(apdu.IIN1NeedTime))
	require.False(t, i.Has1(apdu.IIN1Broadcast))
	require.True(t, i.Has2(apdu.IIN2EventBufferOflow))
}
