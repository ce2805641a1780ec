// Package eventbuffer implements the outstation's bounded per-type event
// FIFOs: insertion with overflow eviction, in-flight tracking across a
// solicited response/confirm round trip, and class-prioritized selection
// for the next response fragment.
package eventbuffer

import (
	"container/list"
	"sync"
)

// MeasurementType names one of the eight point types that generate
// events, each with its own independently bounded FIFO.
type MeasurementType int

const (
	BinaryInput MeasurementType = iota
	DoubleBitBinaryInput
	BinaryOutputStatus
	Counter
	FrozenCounter
	AnalogInput
	AnalogOutputStatus
	OctetString

	numMeasurementTypes
)

// Class is an event class, 1 through 3.
type Class int

const (
	Class1 Class = 1
	Class2 Class = 2
	Class3 Class = 3
)

// classIndex maps a Class to a 0-based priority slot.
func classIndex(c Class) int {
	return int(c) - 1
}

// Event is one buffered measurement change awaiting transmission.
type Event struct {
	ID       uint64
	Type     MeasurementType
	Class    Class
	Index    uint32
	Value    any
	inFlight bool
}

// fifo is one bounded, class-tagged event queue for a single measurement
// type.
type fifo struct {
	max int // 0 suppresses insertion entirely for this type
	l   *list.List
}

// Buffer holds the eight per-type FIFOs plus the overflow (IIN2.3) latch.
// It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	fifos    [numMeasurementTypes]*fifo
	nextID   uint64
	overflow bool
}

// Limits configures each type's maximum event count; a zero or absent
// entry suppresses events of that type entirely.
type Limits map[MeasurementType]int

// New creates a Buffer with the given per-type limits.
func New(limits Limits) *Buffer {
	b := &Buffer{}
	for t := MeasurementType(0); t < numMeasurementTypes; t++ {
		b.fifos[t] = &fifo{max: limits[t], l: list.New()}
	}
	return b
}

// Insert appends a new event to the type's FIFO, evicting the oldest
// entry (pending or in flight) and raising the overflow latch if the FIFO is already at
// its configured maximum. Insert is a no-op (no event recorded) for a type
// whose limit is 0.
func (b *Buffer) Insert(t MeasurementType, class Class, index uint32, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.fifos[t]
	if f.max <= 0 {
		return
	}
	if f.l.Len() >= f.max {
		f.l.Remove(f.l.Front())
		b.overflow = true
	}
	b.nextID++
	f.l.PushBack(&Event{ID: b.nextID, Type: t, Class: class, Index: index, Value: value})
}

// Overflowed reports whether IIN2.3 should be set: an event has been
// dropped since the buffers were last fully drained by a confirm.
func (b *Buffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}

// SelectForTransmit picks pending (not already in-flight) events whose
// class is enabled, in class-priority order (1 before 2 before 3) and
// round-robin across types within a class, consuming budget bytes as
// reported by sizeOf. Selected events are marked in-flight but remain in
// their FIFO; a partial selection (budget exhausted with events still
// pending) signals the caller to clear FIN on the response fragment.
func (b *Buffer) SelectForTransmit(enabled [3]bool, budget int, sizeOf func(MeasurementType) int) ([]Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var selected []Event
	truncated := false
	for classOffset := 0; classOffset < 3; classOffset++ {
		class := Class(classOffset + 1)
		if !enabled[classOffset] {
			continue
		}
		progress := true
		for progress {
			progress = false
			for t := MeasurementType(0); t < numMeasurementTypes; t++ {
				e := firstPending(b.fifos[t].l, class)
				if e == nil {
					continue
				}
				cost := sizeOf(t)
				if budget < cost {
					truncated = true
					continue
				}
				e.inFlight = true
				selected = append(selected, *e)
				budget -= cost
				progress = true
			}
		}
	}
	return selected, truncated
}

// firstPending returns the first not-in-flight event of the given class in
// l, or nil.
func firstPending(l *list.List, class Class) *Event {
	for e := l.Front(); e != nil; e = e.Next() {
		ev := e.Value.(*Event)
		if !ev.inFlight && ev.Class == class {
			return ev
		}
	}
	return nil
}

// ConfirmInFlight removes every in-flight event across all FIFOs (the
// outstation received a matching confirm for the response that carried
// them) and clears the overflow latch once every FIFO is empty.
func (b *Buffer) ConfirmInFlight() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, f := range b.fifos {
		for e := f.l.Front(); e != nil; {
			next := e.Next()
			if e.Value.(*Event).inFlight {
				f.l.Remove(e)
			}
			e = next
		}
	}
	if b.allEmptyLocked() {
		b.overflow = false
	}
}

// RevertInFlight clears the in-flight marker on every event without
// removing it (the confirm-wait timer expired with no confirm received),
// returning the events to pending so they are reselected on the next
// response.
func (b *Buffer) RevertInFlight() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.fifos {
		for e := f.l.Front(); e != nil; e = e.Next() {
			e.Value.(*Event).inFlight = false
		}
	}
}

func (b *Buffer) allEmptyLocked() bool {
	for _, f := range b.fifos {
		if f.l.Len() > 0 {
			return false
		}
	}
	return true
}

// UnwrittenClasses reports which of class 1, 2 and 3 still have at least
// one pending (not in-flight) event, for IIN1.1-1.3.
func (b *Buffer) UnwrittenClasses() [3]bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out [3]bool
	for _, f := range b.fifos {
		for e := f.l.Front(); e != nil; e = e.Next() {
			ev := e.Value.(*Event)
			if !ev.inFlight {
				out[classIndex(ev.Class)] = true
			}
		}
	}
	return out
}

// Len reports how many events (pending and in-flight) a type's FIFO
// currently holds.
func (b *Buffer) Len(t MeasurementType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fifos[t].l.Len()
}
