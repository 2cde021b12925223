package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		in, out, want string
	}{
		{"08:00", "10:30", "2h 30m"},
		{"08:00", "10:00", "2h"},
		{"09:15", "09:45", "0h 30m"},
		{"10:00", "10:00", ""},
		{"11:00", "10:00", ""},
		{"", "10:00", ""},
		{"08:00", "late", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duration(tt.in, tt.out), "%s-%s", tt.in, tt.out)
	}
}

func sampleInput(user string) BookingInput {
	return BookingInput{
		UserID:      user,
		FullName:    "  Aisyah Rahman ",
		StudentID:   "ai220123",
		CarPlate:    "wxy 1234",
		Date:        "2024-03-01",
		TimeIn:      "08:00",
		TimeOut:     "10:30",
		Zone:        "Zone A",
		LotNumber:   "A12",
		ParkingType: "OKU",
	}
}

func TestBookingsCreateStampsFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.SetClock(func() time.Time { return time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC) })
	svc := NewBookings(f.store, f.cache, nil)

	id, err := svc.Create(ctx, sampleInput("u1"))
	require.NoError(t, err)

	r, err := f.store.GetRecord(ctx, BookingsCollection, id)
	require.NoError(t, err)
	assert.Equal(t, "Aisyah Rahman", r["fullName"])
	assert.Equal(t, "AI220123", r["studentId"])
	assert.Equal(t, "WXY 1234", r["carPlate"])
	assert.Equal(t, "2h 30m", r["duration"])
	assert.Equal(t, "OKU", r["bookedBayType"])
	assert.Equal(t, true, r["isOKUBay"])
	assert.Equal(t, "booked", r["status"])
	assert.Equal(t, "2024-03-01T07:00:00Z", r["createdAt"])

	_, err = svc.Create(ctx, BookingInput{})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestBookingsUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBookings(f.store, f.cache, nil)
	id, err := svc.Create(ctx, sampleInput("u1"))
	require.NoError(t, err)

	in := sampleInput("u1")
	in.ParkingType = "Regular"
	in.TimeOut = "09:00"
	require.NoError(t, svc.Update(ctx, id, in))

	r, err := f.store.GetRecord(ctx, BookingsCollection, id)
	require.NoError(t, err)
	assert.Equal(t, false, r["isOKUBay"])
	assert.Equal(t, "1h", r["duration"])
	assert.NotEmpty(t, r["updatedAt"])
	assert.NotEmpty(t, r["createdAt"])

	err = svc.Update(ctx, "missing", in)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestBookingsDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBookings(f.store, f.cache, nil)
	id, err := svc.Create(ctx, sampleInput("u1"))
	require.NoError(t, err)

	err = svc.Delete(ctx, "u2", id)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = f.store.GetRecord(ctx, BookingsCollection, id)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", id))
	_, err = f.store.GetRecord(ctx, BookingsCollection, id)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

// A deleted booking must not come back from the cache on the next visit.
func TestDeletedBookingDoesNotReappear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBookings(f.store, f.cache, nil)
	id, err := svc.Create(ctx, sampleInput("u1"))
	require.NoError(t, err)

	v := OpenConfirmation(ctx, f.loader)
	settled(t, v)
	_, ok := v.Latest("u1")
	require.True(t, ok)
	v.Close()
	drain(t, f.loader)
	_, ok = f.cache.Get(ctx, BookingsKey)
	require.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "u1", id))
	_, ok = f.cache.Get(ctx, BookingsKey)
	assert.False(t, ok, "snapshot should be invalidated by the delete")

	// next mount while the remote is down: nothing stale to show
	f.store.Fail(BookingsCollection, remote.ErrUnavailable)
	v2 := OpenConfirmation(ctx, f.loader)
	defer v2.Close()
	st := settled(t, v2)
	assert.Error(t, st.Err)
	_, ok = v2.Latest("u1")
	assert.False(t, ok)
}

type failingInvalidator struct{ calls int }

func (f *failingInvalidator) Invalidate(context.Context, string) error {
	f.calls++
	return errors.New("cache offline")
}

func TestInvalidateFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := &failingInvalidator{}
	svc := NewBookings(f.store, inv, nil)

	_, err := svc.Create(ctx, sampleInput("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
}

func TestBookingFromRecord(t *testing.T) {
	b := BookingFromRecord(record.Record{"id": "b1", "userId": "u1", "isOKUBay": true, "lotNumber": "A12"})
	assert.Equal(t, Booking{ID: "b1", UserID: "u1", IsOKUBay: true, LotNumber: "A12"}, b)
}
