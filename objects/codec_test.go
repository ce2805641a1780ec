package objects_test

import (
	"testing"

	"github.com/dnp3go/dnp3/cursor"
	"github.com/dnp3go/dnp3/objects"
	"github.com/stretchr/testify/require"
)

func TestBinaryInputStaticRangeRoundTrip(t *testing.T) {
	headers := []objects.ObjectHeader{
		{
			Group: 1, Variation: 2, Qualifier: objects.QualRange8,
			Kind: objects.KindBinaryInputStatic,
			Items: []objects.Item{
				{Index: 1, Value: objects.BinaryInputStatic{Index: 1, Flags: objects.Online | objects.BinaryStateBit}},
				{Index: 2, Value: objects.BinaryInputStatic{Index: 2, Flags: objects.Online}},
			},
		},
	}
	buf := make([]byte, 0, 64)
	w := cursor.NewWriter(buf)
	require.NoError(t, objects.Encode(w, headers))

	cto := &objects.CTOState{}
	decoded, err := objects.DecodeResponse(w.Bytes(), cto)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, byte(1), decoded[0].Group)
	require.Len(t, decoded[0].Items, 2)

	bi := decoded[0].Items[0].Value.(objects.BinaryInputStatic)
	require.True(t, bi.Flags.State())
	bi2 := decoded[0].Items[1].Value.(objects.BinaryInputStatic)
	require.False(t, bi2.Flags.State())
}

func TestCROBDirectOperateRoundTrip(t *testing.T) {
	headers := []objects.ObjectHeader{
		{
			Group: 12, Variation: 1, Qualifier: objects.QualIndexPrefix8,
			Kind: objects.KindCROB,
			Items: []objects.Item{
				{Index: 3, Value: objects.ControlRelayOutputBlock{
					Index: 3,
					CROB: objects.CROB{
						Code:    objects.ControlCode{Op: objects.OpPulseOn, TCC: objects.TCCClose},
						Count:   1,
						OnTime:  100,
						OffTime: 200,
						Status:  objects.StatusSuccess,
					},
				}},
			},
		},
	}
	buf := make([]byte, 0, 64)
	w := cursor.NewWriter(buf)
	require.NoError(t, objects.Encode(w, headers))

	cto := &objects.CTOState{}
	decoded, err := objects.DecodeResponse(w.Bytes(), cto)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	item := decoded[0].Items[0]
	require.EqualValues(t, 3, item.Index)
	crob := item.Value.(objects.ControlRelayOutputBlock).CROB
	require.Equal(t, objects.OpPulseOn, crob.Code.Op)
	require.Equal(t, uint32(100), crob.OnTime)
	require.Equal(t, objects.StatusSuccess, crob.Status)
}

func TestCROBRejectsRangeQualifier(t *testing.T) {
	data := []byte{12, 1, 0x00, 0x00, 0x01} // group 12 var 1, qualifier range8, start=0 stop=1
	_, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.ErrorIs(t, err, objects.ErrInvalidQualifierForVariation)
}

func TestClassDataRequiresAllObjectsQualifier(t *testing.T) {
	data := []byte{60, 1, 0x00, 0x00, 0x00} // group 60 var 1, qualifier range8 (illegal)
	_, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.ErrorIs(t, err, objects.ErrInvalidQualifierForVariation)
}

func TestClassDataAllObjectsDecodesWithNoItems(t *testing.T) {
	data := []byte{60, 1, 0x06}
	headers, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Empty(t, headers[0].Items)
	require.Equal(t, objects.KindClassData, headers[0].Kind)
}

func TestReadRequestCarriesNoItemBytes(t *testing.T) {
	// Group 1 var 2, range 8-bit [1,5] -- a read request with no value bytes.
	data := []byte{1, 2, 0x00, 1, 5}
	headers, err := objects.DecodeRequest(data)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Len(t, headers[0].Items, 5)
	for i, item := range headers[0].Items {
		require.EqualValues(t, i+1, item.Index)
		require.Nil(t, item.Value)
	}
}

func TestOctetStringVariationZeroIsIllegal(t *testing.T) {
	data := []byte{110, 0, 0x17, 1}
	_, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.ErrorIs(t, err, objects.ErrZeroLengthOctetString)
}

func TestOctetStringRoundTrip(t *testing.T) {
	headers := []objects.ObjectHeader{
		{
			Group: 110, Variation: 4, Qualifier: objects.QualIndexPrefix8,
			Kind: objects.KindOctetString,
			Items: []objects.Item{
				{Index: 7, Value: objects.OctetStringInfo{Index: 7, Data: []byte("abcd")}},
			},
		},
	}
	buf := make([]byte, 0, 32)
	w := cursor.NewWriter(buf)
	require.NoError(t, objects.Encode(w, headers))

	decoded, err := objects.DecodeResponse(w.Bytes(), &objects.CTOState{})
	require.NoError(t, err)
	got := decoded[0].Items[0].Value.(objects.OctetStringInfo)
	require.Equal(t, "abcd", string(got.Data))
}

func TestBinaryEventRelativeTimeResolvesFromCTO(t *testing.T) {
	headers := []objects.ObjectHeader{
		{Group: 51, Variation: 1, Qualifier: objects.QualCount8, Kind: objects.KindCTO,
			Items: []objects.Item{{Value: objects.CTOInfo{Time: 1_000_000}}}},
		{Group: 2, Variation: 3, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindBinaryInputEvent,
			Items: []objects.Item{{Index: 9, Value: objects.BinaryInputEvent{Index: 9, Flags: objects.Online, Time: 50, TimeQuality: objects.TimeSynchronized}}}},
	}
	buf := make([]byte, 0, 64)
	w := cursor.NewWriter(buf)
	require.NoError(t, objects.Encode(w, headers))

	cto := &objects.CTOState{}
	decoded, err := objects.DecodeResponse(w.Bytes(), cto)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	ev := decoded[1].Items[0].Value.(objects.BinaryInputEvent)
	require.Equal(t, objects.TimeSynchronized, ev.TimeQuality)
	require.EqualValues(t, 1_000_050, ev.Time)
}

func TestDeviceAttributeRoundTrip(t *testing.T) {
	headers := []objects.ObjectHeader{
		{
			Group: 0, Variation: 0, Qualifier: objects.QualFreeFormat,
			Kind: objects.KindDeviceAttribute,
			Items: []objects.Item{
				{Value: objects.AttributeInfo{
					Variation: objects.AttrVarDeviceProductName,
					DataType:  objects.AttrTypeVisibleString,
					Raw:       []byte("dnp3go outstation"),
				}},
			},
		},
	}
	buf := make([]byte, 0, 64)
	w := cursor.NewWriter(buf)
	require.NoError(t, objects.Encode(w, headers))

	decoded, err := objects.DecodeResponse(w.Bytes(), &objects.CTOState{})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	attr := decoded[0].Items[0].Value.(objects.AttributeInfo)
	name, ok := attr.String()
	require.True(t, ok)
	require.Equal(t, "dnp3go outstation", name)
}

func TestUnknownGroupVariationRejected(t *testing.T) {
	data := []byte{200, 1, 0x06}
	_, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.ErrorIs(t, err, objects.ErrUnknownGroupVariation)
}

func TestFileTransferGroupRejectedAsUnsupported(t *testing.T) {
	data := []byte{70, 1, 0x06}
	_, err := objects.DecodeResponse(data, &objects.CTOState{})
	require.ErrorIs(t, err, objects.ErrUnsupportedFileTransfer)
}
