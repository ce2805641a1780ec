package dnplog_test

import (
	"testing"

	"github.com/dnp3go/dnp3/dnplog"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	calls []string
}

func (r *recordingProvider) Critical(format string, v ...interface{}) { r.calls = append(r.calls, "C") }
func (r *recordingProvider) Error(format string, v ...interface{})    { r.calls = append(r.calls, "E") }
func (r *recordingProvider) Warn(format string, v ...interface{})     { r.calls = append(r.calls, "W") }
func (r *recordingProvider) Info(format string, v ...interface{})     { r.calls = append(r.calls, "I") }
func (r *recordingProvider) Debug(format string, v ...interface{})    { r.calls = append(r.calls, "D") }

func TestLoggerSuppressesCallsWhenDisabled(t *testing.T) {
	rec := &recordingProvider{}
	l := dnplog.NewLogger(nil)
	l.SetProvider(rec)

	l.Info("enabled call")
	l.SetEnabled(false)
	l.Warn("suppressed call")
	l.SetEnabled(true)
	l.Error("re-enabled call")

	require.Equal(t, []string{"I", "E"}, rec.calls)
}

func TestDecodeLevelGates(t *testing.T) {
	require.False(t, dnplog.Nothing.IncludesHeader())
	require.False(t, dnplog.Nothing.IncludesObjectValues())
	require.True(t, dnplog.Header.IncludesHeader())
	require.False(t, dnplog.Header.IncludesObjectValues())
	require.True(t, dnplog.ObjectValuesAndHeader.IncludesHeader())
	require.True(t, dnplog.ObjectValuesAndHeader.IncludesObjectValues())
}

func TestParseDecodeLevelRoundTripsWithString(t *testing.T) {
	for _, lvl := range []dnplog.DecodeLevel{dnplog.Nothing, dnplog.Header, dnplog.ObjectValues, dnplog.ObjectValuesAndHeader} {
		parsed, err := dnplog.ParseDecodeLevel(lvl.String())
		require.NoError(t, err)
		require.Equal(t, lvl, parsed)
	}
}

func TestParseDecodeLevelRejectsUnknown(t *testing.T) {
	_, err := dnplog.ParseDecodeLevel("bogus")
	require.Error(t, err)
}
