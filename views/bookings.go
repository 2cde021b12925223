package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

var (
	ErrNotOwner    = errors.New("views: booking belongs to another user")
	ErrMissingUser = errors.New("views: user id is required")
)

// BayTypeOKU is the accessible bay type.
const BayTypeOKU = "OKU"

// BookingInput is the booking form.
type BookingInput struct {
	UserID      string
	FullName    string
	StudentID   string
	CarPlate    string
	Date        string
	TimeIn      string
	TimeOut     string
	Zone        string
	LotNumber   string
	ParkingType string
}

func (in BookingInput) fields() record.Record {
	return record.Record{
		"userId":        in.UserID,
		"fullName":      strings.TrimSpace(in.FullName),
		"studentId":     strings.ToUpper(strings.TrimSpace(in.StudentID)),
		"carPlate":      strings.ToUpper(strings.TrimSpace(in.CarPlate)),
		"date":          in.Date,
		"timeIn":        in.TimeIn,
		"timeOut":       in.TimeOut,
		"duration":      Duration(in.TimeIn, in.TimeOut),
		"zone":          in.Zone,
		"lotNumber":     in.LotNumber,
		"parkingType":   in.ParkingType,
		"bookedBayType": in.ParkingType,
		"isOKUBay":      in.ParkingType == BayTypeOKU,
		"status":        "booked",
	}
}

// Duration formats the span between two clock times as "2h 30m" or "2h".
// It is empty when either time is missing or the end is not after the start.
func Duration(timeIn, timeOut string) string {
	in, err := time.Parse("15:04", timeIn)
	if err != nil {
		return ""
	}
	out, err := time.Parse("15:04", timeOut)
	if err != nil {
		return ""
	}
	diff := int(out.Sub(in).Minutes())
	if diff <= 0 {
		return ""
	}
	if m := diff % 60; m > 0 {
		return fmt.Sprintf("%dh %dm", diff/60, m)
	}
	return fmt.Sprintf("%dh", diff/60)
}

// Invalidator drops a cached snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Bookings writes bookings straight to the remote store. The cached list is
// not patched; a successful write invalidates it so the next subscription
// refetches and no racing fetch can store the pre-write list.
type Bookings struct {
	docs  remote.Documents
	cache Invalidator
	log   parkcache.Logger
}

func NewBookings(docs remote.Documents, cache Invalidator, log parkcache.Logger) *Bookings {
	if log == nil {
		log = parkcache.NopLogger{}
	}
	return &Bookings{docs: docs, cache: cache, log: log}
}

// Create stores a new booking and returns its id.
func (b *Bookings) Create(ctx context.Context, in BookingInput) (string, error) {
	if in.UserID == "" {
		return "", ErrMissingUser
	}
	f := in.fields()
	f["createdAt"] = record.ServerTimestamp
	id, err := b.docs.CreateRecord(ctx, BookingsCollection, f)
	if err != nil {
		return "", fmt.Errorf("create booking: %w", err)
	}
	b.log.Info("booking created", parkcache.Fields{"id": id, "user": in.UserID})
	b.invalidate(ctx)
	return id, nil
}

// Update replaces the form fields of an existing booking.
func (b *Bookings) Update(ctx context.Context, id string, in BookingInput) error {
	if in.UserID == "" {
		return ErrMissingUser
	}
	f := in.fields()
	f["updatedAt"] = record.ServerTimestamp
	if err := b.docs.UpdateRecord(ctx, BookingsCollection, id, f); err != nil {
		return fmt.Errorf("update booking %q: %w", id, err)
	}
	b.log.Info("booking updated", parkcache.Fields{"id": id, "user": in.UserID})
	b.invalidate(ctx)
	return nil
}

// Delete removes userID's booking id. Bookings of other users are refused
// with ErrNotOwner.
func (b *Bookings) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrMissingUser
	}
	r, err := b.docs.GetRecord(ctx, BookingsCollection, id)
	if err != nil {
		return fmt.Errorf("load booking %q: %w", id, err)
	}
	if r.String("userId") != userID {
		b.log.Warn("refused to delete foreign booking", parkcache.Fields{"id": id, "user": userID})
		return ErrNotOwner
	}
	if err := b.docs.DeleteRecord(ctx, BookingsCollection, id); err != nil {
		return fmt.Errorf("delete booking %q: %w", id, err)
	}
	b.log.Info("booking deleted", parkcache.Fields{"id": id, "user": userID})
	b.invalidate(ctx)
	return nil
}

func (b *Bookings) invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx, BookingsKey); err != nil {
		b.log.Warn("bookings snapshot not invalidated", parkcache.Fields{"err": err})
	}
}
