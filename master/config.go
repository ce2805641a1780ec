package master

import (
	"errors"
	"time"

	"github.com/dnp3go/dnp3/dnplog"
	"github.com/dnp3go/dnp3/link"
)

// Timing bounds, the same min/max/default shape used throughout this
// stack's Config.Valid methods.
const (
	ResponseTimeoutMin = 1 * time.Second
	ResponseTimeoutMax = 60 * time.Second

	SelectTimeoutMin = 1 * time.Second
	SelectTimeoutMax = 30 * time.Second

	KeepAliveTimeoutMin = 10 * time.Second
	KeepAliveTimeoutMax = 30 * time.Minute
)

// Config is a master channel's static configuration.
type Config struct {
	Address       link.Address
	DecodeLevel   dnplog.DecodeLevel
	TxBufferSize  int
	RxBufferSize  int
	ResponseTimeout time.Duration
}

// Valid applies defaults and checks bounds, mirroring outstation.Config.Valid.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("master: nil config")
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = 5 * time.Second
	} else if c.ResponseTimeout < ResponseTimeoutMin || c.ResponseTimeout > ResponseTimeoutMax {
		return errors.New("master: ResponseTimeout out of [1s, 60s]")
	}
	if c.TxBufferSize == 0 {
		c.TxBufferSize = 2048
	}
	if c.RxBufferSize == 0 {
		c.RxBufferSize = 2048
	} else if c.RxBufferSize < 249 {
		return errors.New("master: RxBufferSize below 249")
	}
	return nil
}

// ClassMask selects which of class 0/1/2/3 a poll or auto-task covers.
type ClassMask struct {
	Class0 bool
	Class1 bool
	Class2 bool
	Class3 bool
}

// AssociationConfig configures one outstation association within a master
// channel.
type AssociationConfig struct {
	OutstationAddress link.Address

	ResponseTimeout time.Duration
	SelectTimeout   time.Duration
	KeepAliveTimeout time.Duration

	DisableUnsolClasses ClassMask
	EnableUnsolClasses  ClassMask
	StartupIntegrityClasses ClassMask

	AutoTimeSync    bool
	NonLANTimeSync  bool
	TimeSyncPeriod  time.Duration
}

// Valid applies defaults and checks bounds.
func (c *AssociationConfig) Valid() error {
	if c == nil {
		return errors.New("master: nil association config")
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = 5 * time.Second
	} else if c.ResponseTimeout < ResponseTimeoutMin || c.ResponseTimeout > ResponseTimeoutMax {
		return errors.New("master: ResponseTimeout out of [1s, 60s]")
	}
	if c.SelectTimeout == 0 {
		c.SelectTimeout = 5 * time.Second
	} else if c.SelectTimeout < SelectTimeoutMin || c.SelectTimeout > SelectTimeoutMax {
		return errors.New("master: SelectTimeout out of [1s, 30s]")
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = 60 * time.Second
	} else if c.KeepAliveTimeout < KeepAliveTimeoutMin || c.KeepAliveTimeout > KeepAliveTimeoutMax {
		return errors.New("master: KeepAliveTimeout out of [10s, 30m]")
	}
	if !c.StartupIntegrityClasses.Class0 && !c.StartupIntegrityClasses.Class1 &&
		!c.StartupIntegrityClasses.Class2 && !c.StartupIntegrityClasses.Class3 {
		c.StartupIntegrityClasses = ClassMask{Class0: true, Class1: true, Class2: true, Class3: true}
	}
	return nil
}

// PollConfig configures one periodic class scan.
type PollConfig struct {
	Classes ClassMask
	Period  time.Duration
}
