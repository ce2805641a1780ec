// Package config loads the protocol stack's configuration structs from
// YAML, for hosts that want to externalize association and outstation
// definitions instead of constructing master.Config/master.AssociationConfig/
// outstation.Config directly in Go. It owns yaml tags and the
// string-to-Duration/DecodeLevel conversions so the domain packages never
// need to know about serialization.
package config

import (
	"fmt"
	"os"

	"github.com/dnp3go/dnp3/channel"
	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/dnplog"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/link"
	"github.com/dnp3go/dnp3/master"
	"github.com/dnp3go/dnp3/outstation"
	"gopkg.in/yaml.v3"
)

// ClassMask mirrors master.ClassMask with yaml tags.
type ClassMask struct {
	Class0 bool `yaml:"class0"`
	Class1 bool `yaml:"class1"`
	Class2 bool `yaml:"class2"`
	Class3 bool `yaml:"class3"`
}

func (c ClassMask) toMaster() master.ClassMask {
	return master.ClassMask{Class0: c.Class0, Class1: c.Class1, Class2: c.Class2, Class3: c.Class3}
}

// ConnectStrategy mirrors channel.ConnectStrategy with yaml tags and
// string durations.
type ConnectStrategy struct {
	Min        Duration `yaml:"min"`
	Max        Duration `yaml:"max"`
	Multiplier float64  `yaml:"multiplier"`
}

func (cs ConnectStrategy) toChannel() channel.ConnectStrategy {
	return channel.ConnectStrategy{Min: cs.Min.AsDuration(), Max: cs.Max.AsDuration(), Multiplier: cs.Multiplier}
}

// PollConfig mirrors master.PollConfig with yaml tags.
type PollConfig struct {
	Classes ClassMask `yaml:"classes"`
	Period  Duration  `yaml:"period"`
}

func (p PollConfig) toMaster() master.PollConfig {
	return master.PollConfig{Classes: p.Classes.toMaster(), Period: p.Period.AsDuration()}
}

// AssociationConfig is master.AssociationConfig plus its poll list, as
// loaded from YAML.
type AssociationConfig struct {
	OutstationAddress uint16 `yaml:"outstation_address"`

	ResponseTimeout  Duration `yaml:"response_timeout"`
	SelectTimeout    Duration `yaml:"select_timeout"`
	KeepAliveTimeout Duration `yaml:"keep_alive_timeout"`

	DisableUnsolClasses     ClassMask `yaml:"disable_unsol_classes"`
	EnableUnsolClasses      ClassMask `yaml:"enable_unsol_classes"`
	StartupIntegrityClasses ClassMask `yaml:"startup_integrity_classes"`

	AutoTimeSync   bool     `yaml:"auto_time_sync"`
	NonLANTimeSync bool     `yaml:"non_lan_time_sync"`
	TimeSyncPeriod Duration `yaml:"time_sync_period"`

	Polls []PollConfig `yaml:"polls"`
}

// ToMaster converts a into a master.AssociationConfig and its poll list,
// applying Valid()'s defaulting.
func (a AssociationConfig) ToMaster() (master.AssociationConfig, []master.PollConfig, error) {
	cfg := master.AssociationConfig{
		OutstationAddress:       link.Address(a.OutstationAddress),
		ResponseTimeout:         a.ResponseTimeout.AsDuration(),
		SelectTimeout:           a.SelectTimeout.AsDuration(),
		KeepAliveTimeout:        a.KeepAliveTimeout.AsDuration(),
		DisableUnsolClasses:     a.DisableUnsolClasses.toMaster(),
		EnableUnsolClasses:      a.EnableUnsolClasses.toMaster(),
		StartupIntegrityClasses: a.StartupIntegrityClasses.toMaster(),
		AutoTimeSync:            a.AutoTimeSync,
		NonLANTimeSync:          a.NonLANTimeSync,
		TimeSyncPeriod:          a.TimeSyncPeriod.AsDuration(),
	}
	if err := cfg.Valid(); err != nil {
		return master.AssociationConfig{}, nil, err
	}
	polls := make([]master.PollConfig, len(a.Polls))
	for i, p := range a.Polls {
		polls[i] = p.toMaster()
	}
	return cfg, polls, nil
}

// MasterChannelConfig is a master channel's full YAML-loadable
// configuration: the channel itself, its reconnect strategy, and the
// associations it carries.
type MasterChannelConfig struct {
	Address         uint16   `yaml:"address"`
	DecodeLevel     string   `yaml:"decode_level"`
	TxBufferSize    int      `yaml:"tx_buffer_size"`
	RxBufferSize    int      `yaml:"rx_buffer_size"`
	ResponseTimeout Duration `yaml:"response_timeout"`

	ConnectRetry ConnectStrategy     `yaml:"connect_retry"`
	Associations []AssociationConfig `yaml:"associations"`
}

// ToMaster converts m into a master.Config and a channel.ConnectStrategy,
// applying Valid()'s defaulting to both.
func (m MasterChannelConfig) ToMaster() (master.Config, channel.ConnectStrategy, error) {
	level, err := dnplog.ParseDecodeLevel(m.DecodeLevel)
	if err != nil {
		return master.Config{}, channel.ConnectStrategy{}, err
	}
	cfg := master.Config{
		Address:         link.Address(m.Address),
		DecodeLevel:     level,
		TxBufferSize:    m.TxBufferSize,
		RxBufferSize:    m.RxBufferSize,
		ResponseTimeout: m.ResponseTimeout.AsDuration(),
	}
	if err := cfg.Valid(); err != nil {
		return master.Config{}, channel.ConnectStrategy{}, err
	}
	strategy := m.ConnectRetry.toChannel()
	if err := strategy.Valid(); err != nil {
		return master.Config{}, channel.ConnectStrategy{}, err
	}
	return cfg, strategy, nil
}

// EventBufferConfig is eventbuffer.Limits as loaded from YAML: one named
// field per measurement type rather than a map keyed by the internal
// MeasurementType enum, so a host's config file reads as point-type names.
type EventBufferConfig struct {
	BinaryInput          int `yaml:"binary_input"`
	DoubleBitBinaryInput int `yaml:"double_bit_binary_input"`
	BinaryOutputStatus   int `yaml:"binary_output_status"`
	Counter              int `yaml:"counter"`
	FrozenCounter        int `yaml:"frozen_counter"`
	AnalogInput          int `yaml:"analog_input"`
	AnalogOutputStatus   int `yaml:"analog_output_status"`
	OctetString          int `yaml:"octet_string"`
}

func (e EventBufferConfig) toLimits() eventbuffer.Limits {
	return eventbuffer.Limits{
		eventbuffer.BinaryInput:          e.BinaryInput,
		eventbuffer.DoubleBitBinaryInput: e.DoubleBitBinaryInput,
		eventbuffer.BinaryOutputStatus:   e.BinaryOutputStatus,
		eventbuffer.Counter:              e.Counter,
		eventbuffer.FrozenCounter:        e.FrozenCounter,
		eventbuffer.AnalogInput:          e.AnalogInput,
		eventbuffer.AnalogOutputStatus:   e.AnalogOutputStatus,
		eventbuffer.OctetString:          e.OctetString,
	}
}

// ClassZeroConfig mirrors database.ClassZeroConfig with yaml tags.
type ClassZeroConfig struct {
	Binary             bool `yaml:"binary"`
	DoubleBit          bool `yaml:"double_bit"`
	BinaryOutputStatus bool `yaml:"binary_output_status"`
	Counter            bool `yaml:"counter"`
	FrozenCounter      bool `yaml:"frozen_counter"`
	Analog             bool `yaml:"analog"`
	AnalogOutputStatus bool `yaml:"analog_output_status"`
	OctetString        bool `yaml:"octet_string"`
}

func (c ClassZeroConfig) toDatabase() database.ClassZeroConfig {
	return database.ClassZeroConfig{
		Binary:             c.Binary,
		DoubleBit:          c.DoubleBit,
		BinaryOutputStatus: c.BinaryOutputStatus,
		Counter:            c.Counter,
		FrozenCounter:      c.FrozenCounter,
		Analog:             c.Analog,
		AnalogOutputStatus: c.AnalogOutputStatus,
		OctetString:        c.OctetString,
	}
}

// Features mirrors outstation.Features with yaml tags.
type Features struct {
	SelfAddress bool `yaml:"self_address"`
	Broadcast   bool `yaml:"broadcast"`
	Unsolicited bool `yaml:"unsolicited"`
}

// OutstationConfig is outstation.Config as loaded from YAML.
type OutstationConfig struct {
	OutstationAddress uint16 `yaml:"outstation_address"`
	MasterAddress     uint16 `yaml:"master_address"`

	SolicitedBufferSize   int `yaml:"solicited_buffer_size"`
	UnsolicitedBufferSize int `yaml:"unsolicited_buffer_size"`
	RxBufferSize          int `yaml:"rx_buffer_size"`

	ConfirmTimeout        Duration `yaml:"confirm_timeout"`
	SelectTimeout         Duration `yaml:"select_timeout"`
	MaxUnsolicitedRetries int      `yaml:"max_unsolicited_retries"`
	UnsolicitedRetryDelay Duration `yaml:"unsolicited_retry_delay"`

	Features          Features          `yaml:"features"`
	ClassZero         ClassZeroConfig   `yaml:"class_zero"`
	EventBufferConfig EventBufferConfig `yaml:"event_buffer_config"`
}

// ToOutstation converts o into an outstation.Config, applying Valid()'s
// defaulting.
func (o OutstationConfig) ToOutstation() (outstation.Config, error) {
	cfg := outstation.Config{
		OutstationAddress:     link.Address(o.OutstationAddress),
		MasterAddress:         link.Address(o.MasterAddress),
		SolicitedBufferSize:   o.SolicitedBufferSize,
		UnsolicitedBufferSize: o.UnsolicitedBufferSize,
		RxBufferSize:          o.RxBufferSize,
		ConfirmTimeout:        o.ConfirmTimeout.AsDuration(),
		SelectTimeout:         o.SelectTimeout.AsDuration(),
		MaxUnsolicitedRetries: o.MaxUnsolicitedRetries,
		UnsolicitedRetryDelay: o.UnsolicitedRetryDelay.AsDuration(),
		Features: outstation.Features{
			SelfAddress: o.Features.SelfAddress,
			Broadcast:   o.Features.Broadcast,
			Unsolicited: o.Features.Unsolicited,
		},
		ClassZero:         o.ClassZero.toDatabase(),
		EventBufferConfig: o.EventBufferConfig.toLimits(),
	}
	if err := cfg.Valid(); err != nil {
		return outstation.Config{}, err
	}
	return cfg, nil
}

// Document is the top-level shape LoadYAML expects: zero or more master
// channels and zero or more outstations in one file, so a host can
// describe an entire deployment without writing Go.
type Document struct {
	MasterChannels []MasterChannelConfig `yaml:"master_channels"`
	Outstations    []OutstationConfig    `yaml:"outstations"`
}

// LoadYAML reads and parses a Document from path.
func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &doc, nil
}
