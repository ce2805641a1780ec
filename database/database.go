// Package database implements the outstation's point database: one record
// per configured index across the eight measurement types, deadband and
// update-mode event generation feeding an eventbuffer.Buffer, class-0
// (integrity) selection, and mutex-guarded transactions that notify a
// listener when they commit.
package database

import (
	"sync"

	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/objects"
)

// EventMode controls whether an update to a point generates an event.
type EventMode int

const (
	// Detect generates an event iff the point has an event class assigned
	// and the type's change criterion is met (flag/value change for
	// binary kinds, deadband exceeded for counter/analog kinds).
	Detect EventMode = iota
	// Force always generates an event, regardless of the change
	// criterion, as long as the point has an event class assigned.
	Force
	// Suppress never generates an event.
	Suppress
)

// PointConfig is the static configuration shared by every point record:
// which variations to use when reporting it, whether an update commits to
// the static value, under what circumstances it generates an event, and
// (for counter/analog kinds) the deadband.
type PointConfig struct {
	StaticVariation byte
	EventVariation  byte
	HasClass        bool
	Class           eventbuffer.Class
	UpdateStatic    bool
	EventMode       EventMode
	Deadband        float64 // counter/analog kinds only
}

// BinaryPoint is a group 1 (binary input) point record.
type BinaryPoint struct {
	Config PointConfig
	Value  bool
	Flags  objects.Flags
}

// DoubleBitPoint is a group 3 (double-bit binary input) point record.
type DoubleBitPoint struct {
	Config PointConfig
	State  objects.DoubleBitState
	Flags  objects.Flags
}

// BinaryOutputStatusPoint is a group 10 point record.
type BinaryOutputStatusPoint struct {
	Config PointConfig
	Value  bool
	Flags  objects.Flags
}

// CounterPoint is a group 20 (counter) point record.
type CounterPoint struct {
	Config PointConfig
	Value  uint32
	Flags  objects.Flags
}

// FrozenCounterPoint is a group 21 point record.
type FrozenCounterPoint struct {
	Config PointConfig
	Value  uint32
	Flags  objects.Flags
}

// AnalogPoint is a group 30 (analog input) point record.
type AnalogPoint struct {
	Config PointConfig
	Value  float64
	Flags  objects.Flags
}

// AnalogOutputStatusPoint is a group 40 point record.
type AnalogOutputStatusPoint struct {
	Config PointConfig
	Value  float64
	Flags  objects.Flags
}

// OctetStringPoint is a group 110 point record.
type OctetStringPoint struct {
	Config PointConfig
	Value  []byte
}

// ClassZeroConfig selects which measurement types a class-0 (integrity)
// read walks.
type ClassZeroConfig struct {
	Binary             bool
	DoubleBit          bool
	BinaryOutputStatus bool
	Counter            bool
	FrozenCounter      bool
	Analog             bool
	AnalogOutputStatus bool
	OctetString        bool
}

// Database holds every configured point, indexed by measurement type then
// point index, guarded by a single mutex. Events that update generates are
// pushed into Events; ChangeNotify fires (non-blocking) after every
// transaction commits so an outstation task can consider an unsolicited
// response.
type Database struct {
	mu sync.Mutex

	binary        map[uint32]*BinaryPoint
	doubleBit     map[uint32]*DoubleBitPoint
	binaryOutput  map[uint32]*BinaryOutputStatusPoint
	counter       map[uint32]*CounterPoint
	frozenCounter map[uint32]*FrozenCounterPoint
	analog        map[uint32]*AnalogPoint
	analogOutput  map[uint32]*AnalogOutputStatusPoint
	octetString   map[uint32]*OctetStringPoint

	classZero ClassZeroConfig

	Events       *eventbuffer.Buffer
	ChangeNotify chan struct{}
}

// New creates an empty Database. events may be shared with the outstation
// task that drains it for responses.
func New(events *eventbuffer.Buffer, classZero ClassZeroConfig) *Database {
	return &Database{
		binary:        make(map[uint32]*BinaryPoint),
		doubleBit:     make(map[uint32]*DoubleBitPoint),
		binaryOutput:  make(map[uint32]*BinaryOutputStatusPoint),
		counter:       make(map[uint32]*CounterPoint),
		frozenCounter: make(map[uint32]*FrozenCounterPoint),
		analog:        make(map[uint32]*AnalogPoint),
		analogOutput:  make(map[uint32]*AnalogOutputStatusPoint),
		octetString:   make(map[uint32]*OctetStringPoint),
		classZero:     classZero,
		Events:        events,
		ChangeNotify:  make(chan struct{}, 1),
	}
}

// Transaction is the locked view of the database a caller's closure
// operates on, passed to Update.
type Transaction struct {
	db *Database
}

// Update runs fn with the database locked, then fires ChangeNotify
// (dropping the notification rather than blocking if a prior one is still
// unconsumed — the listener only needs to know "something changed", not
// how many times).
func (db *Database) Update(fn func(*Transaction)) {
	db.mu.Lock()
	fn(&Transaction{db: db})
	db.mu.Unlock()

	select {
	case db.ChangeNotify <- struct{}{}:
	default:
	}
}

// AddBinary registers a binary input point's configuration and initial
// state; call during startup, not inside a running Update transaction.
func (db *Database) AddBinary(index uint32, cfg PointConfig, value bool, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.binary[index] = &BinaryPoint{Config: cfg, Value: value, Flags: flags}
}

// AddCounter registers a counter point.
func (db *Database) AddCounter(index uint32, cfg PointConfig, value uint32, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.counter[index] = &CounterPoint{Config: cfg, Value: value, Flags: flags}
}

// AddAnalog registers an analog input point.
func (db *Database) AddAnalog(index uint32, cfg PointConfig, value float64, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.analog[index] = &AnalogPoint{Config: cfg, Value: value, Flags: flags}
}

// AddDoubleBit registers a double-bit binary input point.
func (db *Database) AddDoubleBit(index uint32, cfg PointConfig, state objects.DoubleBitState, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.doubleBit[index] = &DoubleBitPoint{Config: cfg, State: state, Flags: flags}
}

// AddBinaryOutputStatus registers a binary output status point.
func (db *Database) AddBinaryOutputStatus(index uint32, cfg PointConfig, value bool, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.binaryOutput[index] = &BinaryOutputStatusPoint{Config: cfg, Value: value, Flags: flags}
}

// AddFrozenCounter registers a frozen counter point.
func (db *Database) AddFrozenCounter(index uint32, cfg PointConfig, value uint32, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.frozenCounter[index] = &FrozenCounterPoint{Config: cfg, Value: value, Flags: flags}
}

// AddAnalogOutputStatus registers an analog output status point.
func (db *Database) AddAnalogOutputStatus(index uint32, cfg PointConfig, value float64, flags objects.Flags) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.analogOutput[index] = &AnalogOutputStatusPoint{Config: cfg, Value: value, Flags: flags}
}

// AddOctetString registers an octet string point. UpdateOctetString does
// not check a new value's length against the registered one; class-0
// reports every octet-string point under the variation taken from the
// length of the lowest-index point's value.
func (db *Database) AddOctetString(index uint32, cfg PointConfig, value []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.octetString[index] = &OctetStringPoint{Config: cfg, Value: value}
}

// UpdateBinary applies a new value/flags to a binary input point,
// generating an event per its configured EventMode.
func (tx *Transaction) UpdateBinary(index uint32, value bool, flags objects.Flags) {
	p, ok := tx.db.binary[index]
	if !ok {
		return
	}
	changed := value != p.Value || flags != p.Flags
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.BinaryInput, p.Config.Class, index,
			objects.BinaryInputEvent{Index: index, Flags: flags.WithState(value)})
	}
}

// UpdateCounter applies a new value/flags to a counter point, generating
// an event when the deadband is exceeded (or per Force/Suppress).
func (tx *Transaction) UpdateCounter(index uint32, value uint32, flags objects.Flags) {
	p, ok := tx.db.counter[index]
	if !ok {
		return
	}
	changed := deadbandExceeded(float64(p.Value), float64(value), p.Config.Deadband)
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.Counter, p.Config.Class, index,
			objects.CounterEvent{Index: index, Flags: flags, Value: value})
	}
}

// UpdateAnalog applies a new value/flags to an analog input point,
// generating an event when the deadband is exceeded (or per
// Force/Suppress).
func (tx *Transaction) UpdateAnalog(index uint32, value float64, flags objects.Flags) {
	p, ok := tx.db.analog[index]
	if !ok {
		return
	}
	changed := deadbandExceeded(p.Value, value, p.Config.Deadband)
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.AnalogInput, p.Config.Class, index,
			objects.AnalogInputEvent{Index: index, Flags: flags, Value: value})
	}
}

// UpdateDoubleBit applies a new state/flags to a double-bit binary input
// point, generating an event per its configured EventMode.
func (tx *Transaction) UpdateDoubleBit(index uint32, state objects.DoubleBitState, flags objects.Flags) {
	p, ok := tx.db.doubleBit[index]
	if !ok {
		return
	}
	changed := state != p.State || flags != p.Flags
	if p.Config.UpdateStatic {
		p.State, p.Flags = state, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.DoubleBitBinaryInput, p.Config.Class, index,
			objects.DoubleBitBinaryEvent{Index: index, Flags: flags.WithDoubleBit(state)})
	}
}

// UpdateBinaryOutputStatus applies a new value/flags to a binary output
// status point, generating an event per its configured EventMode.
func (tx *Transaction) UpdateBinaryOutputStatus(index uint32, value bool, flags objects.Flags) {
	p, ok := tx.db.binaryOutput[index]
	if !ok {
		return
	}
	changed := value != p.Value || flags != p.Flags
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.BinaryOutputStatus, p.Config.Class, index,
			objects.BinaryOutputEvent{Index: index, Flags: flags.WithState(value)})
	}
}

// UpdateFrozenCounter applies a new value/flags to a frozen counter point,
// generating an event when the deadband is exceeded (or per
// Force/Suppress).
func (tx *Transaction) UpdateFrozenCounter(index uint32, value uint32, flags objects.Flags) {
	p, ok := tx.db.frozenCounter[index]
	if !ok {
		return
	}
	changed := deadbandExceeded(float64(p.Value), float64(value), p.Config.Deadband)
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.FrozenCounter, p.Config.Class, index,
			objects.FrozenCounterEvent{Index: index, Flags: flags, Value: value})
	}
}

// UpdateAnalogOutputStatus applies a new value/flags to an analog output
// status point, generating an event when the deadband is exceeded (or per
// Force/Suppress). Group 42 (analog output event) has no registered wire
// encoding in the object codec, so the generated event carries the static
// AnalogOutputStatusStatic shape; an outstation response builder that needs
// group 42 framing would add that variation to the codec first.
func (tx *Transaction) UpdateAnalogOutputStatus(index uint32, value float64, flags objects.Flags) {
	p, ok := tx.db.analogOutput[index]
	if !ok {
		return
	}
	changed := deadbandExceeded(p.Value, value, p.Config.Deadband)
	if p.Config.UpdateStatic {
		p.Value, p.Flags = value, flags
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.AnalogOutputStatus, p.Config.Class, index,
			objects.AnalogOutputStatusStatic{Index: index, Flags: flags, Value: value})
	}
}

// UpdateOctetString replaces an octet string point's value, generating an
// event on any byte-for-byte change (there is no deadband for octet
// strings).
func (tx *Transaction) UpdateOctetString(index uint32, value []byte) {
	p, ok := tx.db.octetString[index]
	if !ok {
		return
	}
	changed := !bytesEqual(p.Value, value)
	if p.Config.UpdateStatic {
		p.Value = value
	}
	if shouldGenerateEvent(p.Config, changed) {
		tx.db.Events.Insert(eventbuffer.OctetString, p.Config.Class, index,
			objects.OctetStringInfo{Index: index, Data: value})
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shouldGenerateEvent(cfg PointConfig, changeCriterionMet bool) bool {
	if !cfg.HasClass {
		return false
	}
	switch cfg.EventMode {
	case Force:
		return true
	case Suppress:
		return false
	default: // Detect
		return changeCriterionMet
	}
}

func deadbandExceeded(old, new_, deadband float64) bool {
	diff := new_ - old
	if diff < 0 {
		diff = -diff
	}
	return diff > deadband
}

// BuildClassZero walks every configured measurement type enabled in
// classZero and emits one index-prefixed object header (qualifier 0x17,
// a one-byte index before each object; no range header) per type at its static
// default variation, sorted by ascending index within each type. An empty
// type (no points, or disabled in ClassZeroConfig) emits no header.
func (db *Database) BuildClassZero() []objects.ObjectHeader {
	db.mu.Lock()
	defer db.mu.Unlock()

	var headers []objects.ObjectHeader
	if db.classZero.Binary {
		if h, ok := buildBinaryHeader(db.binary); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.Counter {
		if h, ok := buildCounterHeader(db.counter); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.Analog {
		if h, ok := buildAnalogHeader(db.analog); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.DoubleBit {
		if h, ok := buildDoubleBitHeader(db.doubleBit); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.BinaryOutputStatus {
		if h, ok := buildBinaryOutputHeader(db.binaryOutput); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.FrozenCounter {
		if h, ok := buildFrozenCounterHeader(db.frozenCounter); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.AnalogOutputStatus {
		if h, ok := buildAnalogOutputHeader(db.analogOutput); ok {
			headers = append(headers, h)
		}
	}
	if db.classZero.OctetString {
		if h, ok := buildOctetStringHeader(db.octetString); ok {
			headers = append(headers, h)
		}
	}
	return headers
}

func buildDoubleBitHeader(points map[uint32]*DoubleBitPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.DoubleBitBinaryStatic{Index: idx, Flags: p.Flags.WithDoubleBit(p.State)}}
	}
	return objects.ObjectHeader{Group: 3, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindDoubleBitBinaryStatic, Items: items}, true
}

func buildBinaryOutputHeader(points map[uint32]*BinaryOutputStatusPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.BinaryOutputStatusStatic{Index: idx, Flags: p.Flags.WithState(p.Value)}}
	}
	return objects.ObjectHeader{Group: 10, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindBinaryOutputStatic, Items: items}, true
}

func buildFrozenCounterHeader(points map[uint32]*FrozenCounterPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.FrozenCounterStatic{Index: idx, Flags: p.Flags, Value: p.Value}}
	}
	return objects.ObjectHeader{Group: 21, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindFrozenCounterStatic, Items: items}, true
}

func buildAnalogOutputHeader(points map[uint32]*AnalogOutputStatusPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.AnalogOutputStatusStatic{Index: idx, Flags: p.Flags, Value: p.Value}}
	}
	return objects.ObjectHeader{Group: 40, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindAnalogOutputStatusStatic, Items: items}, true
}

func buildOctetStringHeader(points map[uint32]*OctetStringPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.OctetStringInfo{Index: idx, Data: p.Value}}
	}
	variation := byte(len(points[indices[0]].Value))
	return objects.ObjectHeader{Group: 110, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindOctetString, Items: items}, true
}

func buildBinaryHeader(points map[uint32]*BinaryPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.BinaryInputStatic{Index: idx, Flags: p.Flags.WithState(p.Value)}}
	}
	return objects.ObjectHeader{Group: 1, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindBinaryInputStatic, Items: items}, true
}

func buildCounterHeader(points map[uint32]*CounterPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.CounterStatic{Index: idx, Flags: p.Flags, Value: p.Value}}
	}
	return objects.ObjectHeader{Group: 20, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindCounterStatic, Items: items}, true
}

func buildAnalogHeader(points map[uint32]*AnalogPoint) (objects.ObjectHeader, bool) {
	indices := sortedKeys(points)
	if len(indices) == 0 {
		return objects.ObjectHeader{}, false
	}
	variation := points[indices[0]].Config.StaticVariation
	items := make([]objects.Item, len(indices))
	for i, idx := range indices {
		p := points[idx]
		items[i] = objects.Item{Index: idx, Value: objects.AnalogInputStatic{Index: idx, Flags: p.Flags, Value: p.Value}}
	}
	return objects.ObjectHeader{Group: 30, Variation: variation, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindAnalogInputStatic, Items: items}, true
}

func sortedKeys[T any](m map[uint32]*T) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
