package outstation_test

import (
	"testing"
	"time"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/dnp3go/dnp3/cursor"
	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/link"
	"github.com/dnp3go/dnp3/objects"
	"github.com/dnp3go/dnp3/outstation"
	"github.com/stretchr/testify/require"
)

type fakeControl struct {
	selectStatus  objects.CommandStatus
	operateStatus objects.CommandStatus
	operated      []uint32
}

func (f *fakeControl) SelectCROB(index uint32, crob objects.CROB) objects.CommandStatus {
	if f.selectStatus == 0 {
		return objects.StatusSuccess
	}
	return f.selectStatus
}

func (f *fakeControl) OperateCROB(index uint32, crob objects.CROB) objects.CommandStatus {
	f.operated = append(f.operated, index)
	if f.operateStatus == 0 {
		return objects.StatusSuccess
	}
	return f.operateStatus
}

type fakeApp struct {
	cold, warm  outstation.RestartDelay
	writtenTime uint64
}

func (f *fakeApp) ColdRestart() outstation.RestartDelay { return f.cold }
func (f *fakeApp) WarmRestart() outstation.RestartDelay { return f.warm }
func (f *fakeApp) WriteAbsoluteTime(ms uint64) error {
	f.writtenTime = ms
	return nil
}

func newTestOutstation(t *testing.T, control *fakeControl, app *fakeApp, features outstation.Features) (*outstation.Outstation, *database.Database) {
	t.Helper()
	events := eventbuffer.New(eventbuffer.Limits{
		eventbuffer.BinaryInput: 10,
		eventbuffer.Counter:     10,
	})
	db := database.New(events, database.ClassZeroConfig{Binary: true, Counter: true})
	db.AddBinary(1, database.PointConfig{
		StaticVariation: 2, HasClass: true, Class: eventbuffer.Class1,
		UpdateStatic: true, EventMode: database.Detect,
	}, false, objects.Online)

	cfg := outstation.Config{
		OutstationAddress: link.Address(1),
		MasterAddress:     link.Address(2),
		Features:          features,
	}
	require.NoError(t, cfg.Valid())

	o := outstation.New(cfg, db, control, app, nil)
	return o, db
}

func encodeHeaders(t *testing.T, headers []objects.ObjectHeader) []byte {
	t.Helper()
	w := cursor.NewWriter(make([]byte, 0, 64))
	require.NoError(t, objects.Encode(w, headers))
	return w.Bytes()
}

func readFragment(seq byte) []byte {
	// FIR=1 FIN=1, function READ, class-0 request (group 60 var 1, qualifier all-objects).
	ctrl := byte(0xC0) | (seq & 0x0F)
	return []byte{ctrl, byte(apdu.FuncRead), 60, 1, 0x06}
}

func TestReadClassZeroReturnsStaticData(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	resp, ok := o.HandleFragment(time.Now(), false, readFragment(0))
	require.True(t, ok)
	require.GreaterOrEqual(t, len(resp), 4)
	require.Equal(t, byte(apdu.FuncResponse), resp[1])
}

func TestDirectOperateCROBInvokesControlHandler(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	body := encodeHeaders(t, []objects.ObjectHeader{
		{
			Group: 12, Variation: 1, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindCROB,
			Items: []objects.Item{{Index: 5, Value: objects.ControlRelayOutputBlock{
				Index: 5,
				CROB:  objects.CROB{Code: objects.ControlCode{Op: objects.OpLatchOn, TCC: objects.TCCClose}, Count: 1},
			}}},
		},
	})
	ctrl := byte(0xC0)
	frag := append([]byte{ctrl, byte(apdu.FuncDirectOperate)}, body...)

	resp, ok := o.HandleFragment(time.Now(), false, frag)
	require.True(t, ok)
	require.Equal(t, []uint32{5}, control.operated)

	decoded, err := objects.DecodeResponse(resp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	item := decoded[0].Items[0].Value.(objects.ControlRelayOutputBlock)
	require.Equal(t, objects.StatusSuccess, item.CROB.Status)
}

func crobHeader(index uint32, onTime uint32) []objects.ObjectHeader {
	return []objects.ObjectHeader{
		{
			Group: 12, Variation: 1, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindCROB,
			Items: []objects.Item{{Index: index, Value: objects.ControlRelayOutputBlock{
				Index: index,
				CROB:  objects.CROB{Code: objects.ControlCode{Op: objects.OpLatchOn, TCC: objects.TCCClose}, Count: 1, OnTime: onTime},
			}}},
		},
	}
}

func TestSelectThenOperateSucceedsWithinTimeout(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	body := encodeHeaders(t, crobHeader(5, 100))
	now := time.Now()

	selFrag := append([]byte{0xC0, byte(apdu.FuncSelect)}, body...)
	selResp, ok := o.HandleFragment(now, false, selFrag)
	require.True(t, ok)
	selDecoded, err := objects.DecodeResponse(selResp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, objects.StatusSuccess,
		selDecoded[0].Items[0].Value.(objects.ControlRelayOutputBlock).CROB.Status)

	opFrag := append([]byte{0xC1, byte(apdu.FuncOperate)}, body...)
	opResp, ok := o.HandleFragment(now.Add(1*time.Second), false, opFrag)
	require.True(t, ok)
	opDecoded, err := objects.DecodeResponse(opResp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, objects.StatusSuccess,
		opDecoded[0].Items[0].Value.(objects.ControlRelayOutputBlock).CROB.Status)
	require.Equal(t, []uint32{5}, control.operated)
}

func TestOperateWithoutSelectFails(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	body := encodeHeaders(t, crobHeader(5, 100))
	opFrag := append([]byte{0xC1, byte(apdu.FuncOperate)}, body...)
	opResp, ok := o.HandleFragment(time.Now(), false, opFrag)
	require.True(t, ok)
	opDecoded, err := objects.DecodeResponse(opResp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, objects.StatusNoSelect,
		opDecoded[0].Items[0].Value.(objects.ControlRelayOutputBlock).CROB.Status)
	require.Empty(t, control.operated)
}

func TestOperateAfterSelectTimeoutFails(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	body := encodeHeaders(t, crobHeader(5, 100))
	now := time.Now()
	selFrag := append([]byte{0xC0, byte(apdu.FuncSelect)}, body...)
	_, ok := o.HandleFragment(now, false, selFrag)
	require.True(t, ok)

	opFrag := append([]byte{0xC1, byte(apdu.FuncOperate)}, body...)
	opResp, ok := o.HandleFragment(now.Add(10*time.Second), false, opFrag)
	require.True(t, ok)
	opDecoded, err := objects.DecodeResponse(opResp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, objects.StatusNoSelect,
		opDecoded[0].Items[0].Value.(objects.ControlRelayOutputBlock).CROB.Status)
}

func TestOperateWithMismatchedCROBBytesFails(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	now := time.Now()
	selFrag := append([]byte{0xC0, byte(apdu.FuncSelect)}, encodeHeaders(t, crobHeader(5, 100))...)
	_, ok := o.HandleFragment(now, false, selFrag)
	require.True(t, ok)

	opFrag := append([]byte{0xC1, byte(apdu.FuncOperate)}, encodeHeaders(t, crobHeader(5, 999))...)
	opResp, ok := o.HandleFragment(now, false, opFrag)
	require.True(t, ok)
	opDecoded, err := objects.DecodeResponse(opResp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, objects.StatusNoSelect,
		opDecoded[0].Items[0].Value.(objects.ControlRelayOutputBlock).CROB.Status)
}

func TestBroadcastWriteIsProcessedButNotAnswered(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, _ := newTestOutstation(t, control, app, outstation.Features{Broadcast: true})

	body := encodeHeaders(t, []objects.ObjectHeader{
		{Group: 50, Variation: 1, Qualifier: objects.QualCount8, Kind: objects.KindTimeAndDate,
			Items: []objects.Item{{Value: objects.TimeAndDateInfo{Time: 12345}}}},
	})
	frag := append([]byte{0xC0, byte(apdu.FuncWrite)}, body...)

	_, ok := o.HandleFragment(time.Now(), true, frag)
	require.False(t, ok)
	require.EqualValues(t, 12345, app.writtenTime)
}

func TestConfirmWaitTimeoutRevertsInFlightEvents(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, db := newTestOutstation(t, control, app, outstation.Features{})

	db.Update(func(tx *database.Transaction) {
		tx.UpdateBinary(1, true, objects.Online)
	})

	body := encodeHeaders(t, []objects.ObjectHeader{
		{Group: 60, Variation: 2, Qualifier: objects.QualAllObjects, Kind: objects.KindClassData},
	})
	now := time.Now()
	readFrag := append([]byte{0xC0, byte(apdu.FuncRead)}, body...)
	resp, ok := o.HandleFragment(now, false, readFrag)
	require.True(t, ok)
	require.NotEmpty(t, resp)

	o.CheckConfirmTimeout(now.Add(10 * time.Second))

	resp2, ok := o.HandleFragment(now.Add(10*time.Second), false, readFrag)
	require.True(t, ok)
	decoded, err := objects.DecodeResponse(resp2[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.NotEmpty(t, decoded)
}

func TestUnsolicitedDisabledUntilEnabled(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{}
	o, db := newTestOutstation(t, control, app, outstation.Features{Unsolicited: true})

	db.Update(func(tx *database.Transaction) {
		tx.UpdateBinary(1, true, objects.Online)
	})

	_, ok := o.CheckUnsolicited(time.Now())
	require.False(t, ok, "unsolicited reporting must stay off until ENABLE_UNSOLICITED is received")

	enableBody := encodeHeaders(t, []objects.ObjectHeader{
		{Group: 60, Variation: 2, Qualifier: objects.QualAllObjects, Kind: objects.KindClassData},
	})
	enableFrag := append([]byte{0xC0, byte(apdu.FuncEnableUnsolicited)}, enableBody...)
	_, ok = o.HandleFragment(time.Now(), false, enableFrag)
	require.True(t, ok)

	resp, ok := o.CheckUnsolicited(time.Now())
	require.True(t, ok)
	require.Equal(t, byte(apdu.FuncUnsolicitedResponse), resp[1])
}

func TestRestartReportsDelay(t *testing.T) {
	control := &fakeControl{}
	app := &fakeApp{cold: outstation.RestartDelay{Mode: outstation.RestartSeconds, Value: 30}}
	o, _ := newTestOutstation(t, control, app, outstation.Features{})

	frag := []byte{0xC0, byte(apdu.FuncColdRestart)}
	resp, ok := o.HandleFragment(time.Now(), false, frag)
	require.True(t, ok)
	decoded, err := objects.DecodeResponse(resp[4:], &objects.CTOState{})
	require.NoError(t, err)
	require.Equal(t, byte(52), decoded[0].Group)
	require.EqualValues(t, 1, decoded[0].Variation)
	require.Equal(t, uint16(30), decoded[0].Items[0].Value.(objects.TimeDelayInfo).Value)
}
