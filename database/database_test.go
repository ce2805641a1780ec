package database_test

import (
	"testing"

	"github.com/dnp3go/dnp3/database"
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/objects"
	"github.com/stretchr/testify/require"
)

func newTestDB() *database.Database {
	events := eventbuffer.New(eventbuffer.Limits{
		eventbuffer.BinaryInput:          10,
		eventbuffer.Counter:              10,
		eventbuffer.AnalogInput:          10,
		eventbuffer.DoubleBitBinaryInput: 10,
		eventbuffer.OctetString:          10,
	})
	return database.New(events, database.ClassZeroConfig{Binary: true, Counter: true, Analog: true})
}

func TestUpdateBinaryDetectGeneratesEventOnChange(t *testing.T) {
	db := newTestDB()
	db.AddBinary(1, database.PointConfig{
		StaticVariation: 2, EventVariation: 1, HasClass: true, Class: eventbuffer.Class1,
		UpdateStatic: true, EventMode: database.Detect,
	}, false, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateBinary(1, true, objects.Online)
	})

	require.Equal(t, 1, db.Events.Len(eventbuffer.BinaryInput))
}

func TestUpdateBinaryDetectSkipsEventWhenUnchanged(t *testing.T) {
	db := newTestDB()
	db.AddBinary(1, database.PointConfig{
		HasClass: true, Class: eventbuffer.Class1, UpdateStatic: true, EventMode: database.Detect,
	}, true, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateBinary(1, true, objects.Online)
	})

	require.Equal(t, 0, db.Events.Len(eventbuffer.BinaryInput))
}

func TestUpdateBinarySuppressNeverGeneratesEvent(t *testing.T) {
	db := newTestDB()
	db.AddBinary(1, database.PointConfig{
		HasClass: true, Class: eventbuffer.Class1, UpdateStatic: true, EventMode: database.Suppress,
	}, false, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateBinary(1, true, objects.Online)
	})

	require.Equal(t, 0, db.Events.Len(eventbuffer.BinaryInput))
}

func TestUpdateAnalogDeadband(t *testing.T) {
	db := newTestDB()
	db.AddAnalog(5, database.PointConfig{
		HasClass: true, Class: eventbuffer.Class2, UpdateStatic: true,
		EventMode: database.Detect, Deadband: 1.0,
	}, 10.0, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateAnalog(5, 10.5, objects.Online) // within deadband
	})
	require.Equal(t, 0, db.Events.Len(eventbuffer.AnalogInput))

	db.Update(func(tx *database.Transaction) {
		tx.UpdateAnalog(5, 12.0, objects.Online) // exceeds deadband
	})
	require.Equal(t, 1, db.Events.Len(eventbuffer.AnalogInput))
}

func TestUpdateFiresChangeNotify(t *testing.T) {
	db := newTestDB()
	db.AddCounter(1, database.PointConfig{UpdateStatic: true}, 0, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateCounter(1, 1, objects.Online)
	})

	select {
	case <-db.ChangeNotify:
	default:
		t.Fatal("expected a change notification")
	}
}

func TestUpdateDoubleBitForceAlwaysGeneratesEvent(t *testing.T) {
	db := newTestDB()
	db.AddDoubleBit(1, database.PointConfig{
		HasClass: true, Class: eventbuffer.Class1, UpdateStatic: true, EventMode: database.Force,
	}, objects.DoubleBitOn, objects.Online)

	db.Update(func(tx *database.Transaction) {
		tx.UpdateDoubleBit(1, objects.DoubleBitOn, objects.Online) // unchanged, still forced
	})

	require.Equal(t, 1, db.Events.Len(eventbuffer.DoubleBitBinaryInput))
}

func TestUpdateOctetStringGeneratesEventOnByteChange(t *testing.T) {
	db := newTestDB()
	db.AddOctetString(1, database.PointConfig{
		HasClass: true, Class: eventbuffer.Class3, UpdateStatic: true, EventMode: database.Detect,
	}, []byte("abcd"))

	db.Update(func(tx *database.Transaction) {
		tx.UpdateOctetString(1, []byte("abcd")) // unchanged
	})
	require.Equal(t, 0, db.Events.Len(eventbuffer.OctetString))

	db.Update(func(tx *database.Transaction) {
		tx.UpdateOctetString(1, []byte("abce"))
	})
	require.Equal(t, 1, db.Events.Len(eventbuffer.OctetString))
}

func TestBuildClassZeroOmitsDisabledAndEmptyTypes(t *testing.T) {
	db := newTestDB()
	db.AddBinary(3, database.PointConfig{StaticVariation: 2}, true, objects.Online)
	db.AddBinary(1, database.PointConfig{StaticVariation: 2}, false, objects.Online)

	headers := db.BuildClassZero()
	require.Len(t, headers, 1)
	require.Equal(t, byte(1), headers[0].Group)
	require.Len(t, headers[0].Items, 2)
	require.EqualValues(t, 1, headers[0].Items[0].Index)
	require.EqualValues(t, 3, headers[0].Items[1].Index)
}
