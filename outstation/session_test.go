package outstation_test

import (
	"testing"
	"time"

	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/link"
	"github.com/dnp3go/dnp3/objects"
	"github.com/dnp3go/dnp3/outstation"
	"github.com/dnp3go/dnp3/transport"
	"github.com/stretchr/testify/require"
)

type stubApplication struct{}

func (stubApplication) ColdRestart() outstation.RestartDelay { return outstation.RestartDelay{} }
func (stubApplication) WarmRestart() outstation.RestartDelay { return outstation.RestartDelay{} }
func (stubApplication) WriteAbsoluteTime(ms uint64) error    { return nil }

type stubControlHandler struct{}

func (stubControlHandler) SelectCROB(uint32, objects.CROB) objects.CommandStatus  { return 0 }
func (stubControlHandler) OperateCROB(uint32, objects.CROB) objects.CommandStatus { return 0 }

func newTestOutstation(t *testing.T) *outstation.Outstation {
	t.Helper()
	cfg := outstation.Config{
		OutstationAddress: 1024,
		MasterAddress:     1,
		RxBufferSize:      2048,
	}
	require.NoError(t, cfg.Valid())
	db := database.New(eventbuffer.New(eventbuffer.Limits{}), database.ClassZeroConfig{})
	return outstation.New(cfg, db, stubControlHandler{}, stubApplication{}, nil)
}

func TestSessionRoundTripsReadRequestThroughLinkAndTransport(t *testing.T) {
	out := newTestOutstation(t)
	sess := outstation.NewSession(out, 1024, 1, 2048, 50*time.Millisecond)

	now := time.Now()
	sess.OnConnected(now)

	// Build a class-0 read request the way a master would, wrapped
	// exactly as link.Layer/transport.Segment would on the wire.
	fragment := []byte{0xC0, 0x01, 0x3C, 0x01, 0x06} // FIR|FIN, seq 0; Read; g60v1 qual 0x06
	master := link.NewLayer(1, 1024, false, link.Discard)
	var wire []byte
	for _, seg := range transport.Segment(fragment, 0) {
		frame, err := master.Wrap(seg)
		require.NoError(t, err)
		wire = append(wire, frame...)
	}

	resp, err := sess.HandleBytes(now, wire)
	require.NoError(t, err)
	require.NotEmpty(t, resp)

	// The response must itself be valid link frames carrying a Response
	// fragment back to the master's address.
	received, _, err := master.Feed(resp)
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.GreaterOrEqual(t, len(received[0].UserData), 2)
}

func TestSessionTickRunsConfirmAndUnsolicitedChecks(t *testing.T) {
	out := newTestOutstation(t)
	sess := outstation.NewSession(out, 1024, 1, 2048, 10*time.Millisecond)

	now := time.Now()
	sess.OnConnected(now)

	toWrite, nextWake := sess.Tick(now)
	require.Empty(t, toWrite)
	require.True(t, nextWake.After(now))
}

func TestSessionOnDisconnectedDropsLinkState(t *testing.T) {
	out := newTestOutstation(t)
	sess := outstation.NewSession(out, 1024, 1, 2048, 10*time.Millisecond)
	sess.OnConnected(time.Now())
	sess.OnDisconnected()
	// A fresh OnConnected must be safe to call again without panicking on
	// stale state.
	require.NotPanics(t, func() { sess.OnConnected(time.Now()) })
}
