package channel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dnp3go/dnp3/channel"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

func TestSupervisorCancelsSiblingsOnFatalFailure(t *testing.T) {
	var goodAttempts int32
	good := channel.ConnectorFunc(func() (channel.Transport, error) {
		atomic.AddInt32(&goodAttempts, 1)
		return nil, errors.New("refused") // retries forever, never fatal
	})
	bad := channel.ConnectorFunc(func() (channel.Transport, error) {
		return nil, channel.Fatal(errors.New("bad config"))
	})

	var sup channel.Supervisor
	sup.Add(channel.NewChannel("good", channel.ConnectStrategy{Min: time.Millisecond, Max: 2 * time.Millisecond}, good, &recordingSession{}, nil))
	sup.Add(channel.NewChannel("bad", channel.ConnectStrategy{Min: time.Millisecond, Max: 2 * time.Millisecond}, bad, &recordingSession{}, nil))

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, channel.ErrFatal)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after a fatal sibling failure")
	}
}

func TestSingleflightConnectorCollapsesConcurrentDials(t *testing.T) {
	var dials int32
	inner := channel.ConnectorFunc(func() (channel.Transport, error) {
		atomic.AddInt32(&dials, 1)
		time.Sleep(10 * time.Millisecond)
		return nil, errors.New("simulated dial result")
	})
	var group singleflight.Group
	a := channel.NewSingleflightConnector(&group, "shared-key", inner)
	b := channel.NewSingleflightConnector(&group, "shared-key", inner)

	results := make(chan error, 2)
	go func() { _, err := a.Connect(); results <- err }()
	go func() { _, err := b.Connect(); results <- err }()

	for i := 0; i < 2; i++ {
		err := <-results
		require.EqualError(t, err, "simulated dial result")
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&dials))
}
