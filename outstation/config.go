package outstation

import (
	"errors"
	"time"

	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/link"
)

// Timing bounds applied by Config.Valid, mirroring the min/max/default
// pattern used for every duration-shaped option in this stack.
const (
	ConfirmTimeoutMin = 1 * time.Second
	ConfirmTimeoutMax = 60 * time.Second

	SelectTimeoutMin = 1 * time.Second
	SelectTimeoutMax = 30 * time.Second

	UnsolicitedRetryDelayMin = 1 * time.Second
	UnsolicitedRetryDelayMax = 60 * time.Second

	// RxBufferSizeMin is transport.MinFragmentSize; duplicated here (not
	// imported) to avoid a config->transport dependency purely for a
	// constant.
	RxBufferSizeMin = 249
)

// Features toggles optional outstation behavior.
type Features struct {
	SelfAddress  bool
	Broadcast    bool
	Unsolicited  bool
}

// Config is an outstation's static configuration. The zero value is
// invalid; call Valid to apply defaults and validate bounds.
type Config struct {
	OutstationAddress link.Address
	MasterAddress      link.Address

	SolicitedBufferSize   int
	UnsolicitedBufferSize int
	RxBufferSize          int

	ConfirmTimeout        time.Duration
	SelectTimeout         time.Duration
	MaxUnsolicitedRetries int
	UnsolicitedRetryDelay time.Duration

	Features  Features
	ClassZero database.ClassZeroConfig
	EventBufferConfig eventbuffer.Limits
}

// Valid applies defaults for every unset duration/size field and checks the
// configured bounds, the same min/max/default shape used throughout.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("outstation: nil config")
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = 5 * time.Second
	} else if c.ConfirmTimeout < ConfirmTimeoutMin || c.ConfirmTimeout > ConfirmTimeoutMax {
		return errors.New("outstation: ConfirmTimeout out of [1s, 60s]")
	}
	if c.SelectTimeout == 0 {
		c.SelectTimeout = 5 * time.Second
	} else if c.SelectTimeout < SelectTimeoutMin || c.SelectTimeout > SelectTimeoutMax {
		return errors.New("outstation: SelectTimeout out of [1s, 30s]")
	}
	if c.UnsolicitedRetryDelay == 0 {
		c.UnsolicitedRetryDelay = 5 * time.Second
	} else if c.UnsolicitedRetryDelay < UnsolicitedRetryDelayMin || c.UnsolicitedRetryDelay > UnsolicitedRetryDelayMax {
		return errors.New("outstation: UnsolicitedRetryDelay out of [1s, 60s]")
	}
	if c.MaxUnsolicitedRetries == 0 {
		c.MaxUnsolicitedRetries = 3
	}
	if c.SolicitedBufferSize == 0 {
		c.SolicitedBufferSize = 2048
	}
	if c.UnsolicitedBufferSize == 0 {
		c.UnsolicitedBufferSize = 2048
	}
	if c.RxBufferSize == 0 {
		c.RxBufferSize = 2048
	} else if c.RxBufferSize < RxBufferSizeMin {
		return errors.New("outstation: RxBufferSize below 249")
	}
	return nil
}
