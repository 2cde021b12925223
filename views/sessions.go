package views

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/record"
)

type Booking struct {
	ID            string
	UserID        string
	FullName      string
	StudentID     string
	CarPlate      string
	Date          string // 2006-01-02
	TimeIn        string // 15:04
	TimeOut       string // 15:04
	Duration      string
	Zone          string
	LotNumber     string
	ParkingType   string
	BookedBayType string
	IsOKUBay      bool
	Status        string
}

func BookingFromRecord(r record.Record) Booking {
	return Booking{
		ID:            r.ID(),
		UserID:        r.String("userId"),
		FullName:      r.String("fullName"),
		StudentID:     r.String("studentId"),
		CarPlate:      r.String("carPlate"),
		Date:          r.String("date"),
		TimeIn:        r.String("timeIn"),
		TimeOut:       r.String("timeOut"),
		Duration:      r.String("duration"),
		Zone:          r.String("zone"),
		LotNumber:     r.String("lotNumber"),
		ParkingType:   r.String("parkingType"),
		BookedBayType: r.String("bookedBayType"),
		IsOKUBay:      r.Bool("isOKUBay"),
		Status:        r.String("status"),
	}
}

var clockLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// End combines Date and TimeOut into an instant in loc.
func (b Booking) End(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	v := b.Date + "T" + b.TimeOut
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("booking %q: invalid end %q", b.ID, v)
}

type Sessions struct {
	Active  []Booking
	History []Booking
}

// SplitSessions keeps userID's bookings and splits them by end instant:
// ending strictly after now is active, everything else (including an end
// that cannot be parsed) is history. Input order is preserved.
func SplitSessions(data []record.Record, userID string, now time.Time, loc *time.Location) Sessions {
	s := Sessions{Active: []Booking{}, History: []Booking{}}
	for _, r := range data {
		b := BookingFromRecord(r)
		if b.UserID != userID {
			continue
		}
		end, err := b.End(loc)
		if err == nil && end.After(now) {
			s.Active = append(s.Active, b)
		} else {
			s.History = append(s.History, b)
		}
	}
	return s
}

// UserBookings returns userID's bookings in input order.
func UserBookings(data []record.Record, userID string) []Booking {
	out := []Booking{}
	for _, r := range data {
		if r.String("userId") == userID {
			out = append(out, BookingFromRecord(r))
		}
	}
	return out
}

type SessionsOptions struct {
	Now      func() time.Time // nil => time.Now
	Location *time.Location   // nil => time.Local
}

// SessionsView lists the signed-in user's bookings as active and history.
type SessionsView struct {
	view
	now func() time.Time
	loc *time.Location
}

func OpenSessions(ctx context.Context, l *parkcache.Loader, opts SessionsOptions) *SessionsView {
	v := &SessionsView{view: view{sub: l.Use(ctx, BookingsParams)}, now: opts.Now, loc: opts.Location}
	if v.now == nil {
		v.now = time.Now
	}
	if v.loc == nil {
		v.loc = time.Local
	}
	return v
}

// Split derives the sessions for userID from the current data and clock.
func (v *SessionsView) Split(userID string) Sessions {
	return SplitSessions(v.sub.State().Data, userID, v.now(), v.loc)
}
