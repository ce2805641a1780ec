package master_test

import (
	"testing"
	"time"

	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/master"
	"github.com/dnp3go/dnp3/objects"
	"github.com/dnp3go/dnp3/outstation"
	"github.com/stretchr/testify/require"
)

type recordingInformation struct {
	started  []master.TaskType
	succeeded []master.TaskType
	failed    []master.TaskType
}

func (r *recordingInformation) TaskStart(t master.TaskType, id master.TaskID)   { r.started = append(r.started, t) }
func (r *recordingInformation) TaskSuccess(t master.TaskType, id master.TaskID) { r.succeeded = append(r.succeeded, t) }
func (r *recordingInformation) TaskFail(t master.TaskType, id master.TaskID, err error) {
	r.failed = append(r.failed, t)
}
func (r *recordingInformation) UnsolicitedReceived() {}

type fixedClock struct{ ms uint64 }

func (f fixedClock) CurrentTimeMillis() uint64 { return f.ms }

type testOutstationApp struct{}

func (testOutstationApp) ColdRestart() outstation.RestartDelay { return outstation.RestartDelay{} }
func (testOutstationApp) WarmRestart() outstation.RestartDelay { return outstation.RestartDelay{} }
func (testOutstationApp) WriteAbsoluteTime(ms uint64) error    { return nil }

type testControlHandler struct{}

func (testControlHandler) SelectCROB(uint32, objects.CROB) objects.CommandStatus  { return 0 }
func (testControlHandler) OperateCROB(uint32, objects.CROB) objects.CommandStatus { return 0 }

// runToIdle pumps bytes between the two sessions until the master has
// nothing left to send, bounded by maxRounds to avoid hanging the test if
// the state machines never settle.
func runToIdle(t *testing.T, now time.Time, m *master.Session, o *outstation.Session, maxRounds int) {
	t.Helper()
	for i := 0; i < maxRounds; i++ {
		toOutstation, _ := m.Tick(now)
		if len(toOutstation) == 0 {
			return
		}
		fromOutstation, err := o.HandleBytes(now, toOutstation)
		require.NoError(t, err)
		if len(fromOutstation) == 0 {
			continue
		}
		toOutstationAgain, err := m.HandleBytes(now, fromOutstation)
		require.NoError(t, err)
		if len(toOutstationAgain) > 0 {
			_, err := o.HandleBytes(now, toOutstationAgain)
			require.NoError(t, err)
		}
	}
	t.Fatalf("master session did not reach idle within %d rounds", maxRounds)
}

func TestSessionDrivesStartupSequenceAgainstOutstation(t *testing.T) {
	now := time.Now()

	ocfg := outstation.Config{OutstationAddress: 1024, MasterAddress: 1, RxBufferSize: 2048}
	require.NoError(t, ocfg.Valid())
	db := database.New(eventbuffer.New(eventbuffer.Limits{}), database.ClassZeroConfig{})
	out := outstation.New(ocfg, db, testControlHandler{}, testOutstationApp{}, nil)
	outSess := outstation.NewSession(out, 1024, 1, 2048, 50*time.Millisecond)
	outSess.OnConnected(now)

	acfg := master.AssociationConfig{OutstationAddress: 1024}
	require.NoError(t, acfg.Valid())
	info := &recordingInformation{}
	assoc := master.NewAssociation(acfg, info, now)

	mSess := master.NewSession(assoc, master.NopReadHandler{}, fixedClock{ms: 1000}, 1, 1024, 2048, 50*time.Millisecond)
	mSess.OnConnected(now)

	runToIdle(t, now, mSess, outSess, 10)

	require.Empty(t, info.failed)
	require.Contains(t, info.succeeded, master.TaskDisableUnsolicited)
	require.Contains(t, info.succeeded, master.TaskStartupIntegrity)
	require.Contains(t, info.succeeded, master.TaskEnableUnsolicited)
}

func TestSessionTimesOutAndDropsNonRetryableTask(t *testing.T) {
	now := time.Now()
	acfg := master.AssociationConfig{OutstationAddress: 1024, ResponseTimeout: 1 * time.Second}
	require.NoError(t, acfg.Valid())
	info := &recordingInformation{}
	assoc := master.NewAssociation(acfg, info, now)

	mSess := master.NewSession(assoc, master.NopReadHandler{}, fixedClock{}, 1, 1024, 2048, 50*time.Millisecond)
	mSess.OnConnected(now)

	toSend, wake := mSess.Tick(now)
	require.NotEmpty(t, toSend)
	require.True(t, wake.After(now))
	require.Equal(t, []master.TaskType{master.TaskDisableUnsolicited}, info.started)

	// No response ever arrives; once the deadline passes the task is
	// reported failed. DisableUnsolicited is not retryable, so it is
	// dropped rather than requeued and startup moves on to the next
	// auto-task on the following Tick.
	past := now.Add(2 * time.Second)
	toSend, _ = mSess.Tick(past)
	require.NotEmpty(t, toSend)
	require.Contains(t, info.failed, master.TaskDisableUnsolicited)
}
