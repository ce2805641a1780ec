package master

import "errors"

// Task-lifecycle errors. Fatal errors (bad encoding, shutdown, association
// removed) stop the task outright; ErrResponseTimeout is retried according
// to the task's retry strategy.
var (
	ErrResponseTimeout     = errors.New("master: response timeout")
	ErrBadEncoding         = errors.New("master: bad response encoding")
	ErrShutdown            = errors.New("master: channel shut down")
	ErrAssociationRemoved  = errors.New("master: association removed")
	ErrWrongFunctionCode   = errors.New("master: unexpected function code in response")
	ErrUnsolicitedResponse = errors.New("master: UNS set on a solicited response")
	ErrSequenceMismatch    = errors.New("master: response sequence does not match request")
)

// SBO (select-before-operate) mismatch errors, reported when the echoed
// control objects in a Select or Operate response diverge from what was
// sent.
var (
	ErrHeaderCountMismatch = errors.New("master: response header count does not match request")
	ErrHeaderTypeMismatch  = errors.New("master: response header group/variation does not match request")
	ErrObjectValueMismatch = errors.New("master: echoed control object does not match request")
)

// Time-sync errors.
var (
	ErrClockRollback    = errors.New("master: computed outstation time is before the previous sync")
	ErrDelayExceedsRTT  = errors.New("master: outstation delay exceeds measured round-trip time")
	ErrTimeFieldOverflow = errors.New("master: computed time exceeds the 48-bit wire field")
)
