package views

import (
	"context"

	"github.com/unkn0wn-root/parkcache"
)

// ConfirmationView shows the booking a user made last.
type ConfirmationView struct{ view }

func OpenConfirmation(ctx context.Context, l *parkcache.Loader) *ConfirmationView {
	return &ConfirmationView{view{sub: l.Use(ctx, BookingsParams)}}
}

func (v *ConfirmationView) UserBookings(userID string) []Booking {
	return UserBookings(v.sub.State().Data, userID)
}

// Latest is the last of userID's bookings in collection order.
func (v *ConfirmationView) Latest(userID string) (Booking, bool) {
	bs := v.UserBookings(userID)
	if len(bs) == 0 {
		return Booking{}, false
	}
	return bs[len(bs)-1], true
}
