package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/unkn0wn-root/parkcache/internal/app"
	"github.com/unkn0wn-root/parkcache/views"
)

type bookingFlags struct {
	in views.BookingInput
}

func (f *bookingFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.in.FullName, "name", "", "Full name")
	fs.StringVar(&f.in.StudentID, "student", "", "Student id")
	fs.StringVar(&f.in.CarPlate, "plate", "", "Car plate")
	fs.StringVar(&f.in.Date, "date", "", "Date (YYYY-MM-DD)")
	fs.StringVar(&f.in.TimeIn, "in", "", "Start time (HH:MM)")
	fs.StringVar(&f.in.TimeOut, "out", "", "End time (HH:MM)")
	fs.StringVar(&f.in.Zone, "zone", "", "Zone id")
	fs.StringVar(&f.in.LotNumber, "lot", "", "Bay number")
	fs.StringVar(&f.in.ParkingType, "type", "regular", "Bay type (regular or OKU)")
}

// overlay copies the flags the user set onto base.
func (f *bookingFlags) overlay(fs *pflag.FlagSet, base views.BookingInput) views.BookingInput {
	set := map[string]*string{
		"name":    &base.FullName,
		"student": &base.StudentID,
		"plate":   &base.CarPlate,
		"date":    &base.Date,
		"in":      &base.TimeIn,
		"out":     &base.TimeOut,
		"zone":    &base.Zone,
		"lot":     &base.LotNumber,
		"type":    &base.ParkingType,
	}
	src := map[string]string{
		"name":    f.in.FullName,
		"student": f.in.StudentID,
		"plate":   f.in.CarPlate,
		"date":    f.in.Date,
		"in":      f.in.TimeIn,
		"out":     f.in.TimeOut,
		"zone":    f.in.Zone,
		"lot":     f.in.LotNumber,
		"type":    f.in.ParkingType,
	}
	fs.Visit(func(fl *pflag.Flag) {
		if dst, ok := set[fl.Name]; ok {
			*dst = src[fl.Name]
		}
	})
	return base
}

func (f *bookingFlags) validate() error {
	for name, v := range map[string]string{
		"date": f.in.Date, "in": f.in.TimeIn, "out": f.in.TimeOut,
		"zone": f.in.Zone, "lot": f.in.LotNumber, "plate": f.in.CarPlate,
	} {
		if v == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	if views.Duration(f.in.TimeIn, f.in.TimeOut) == "" {
		return fmt.Errorf("--out must be after --in")
	}
	return nil
}

func newBookCmd(r *root) *cobra.Command {
	var f bookingFlags
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a bay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := r.userID()
			if err != nil {
				return err
			}
			if err := f.validate(); err != nil {
				return err
			}
			in := f.in
			in.UserID = user
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				id, err := a.Bookings.Create(ctx, in)
				if err != nil {
					return err
				}
				v := views.OpenConfirmation(ctx, a.Loader)
				defer v.Close()
				if _, err := v.Settled(ctx); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "booked %s\n", id)
				if b, ok := v.Latest(user); ok {
					table(out, func(w io.Writer) { writeBookings(w, []views.Booking{b}) })
				}
				return nil
			})
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newEditCmd(r *root) *cobra.Command {
	var f bookingFlags
	cmd := &cobra.Command{
		Use:   "edit <booking-id>",
		Short: "Change a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := r.userID()
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				cur, err := a.Store.GetRecord(ctx, views.BookingsCollection, args[0])
				if err != nil {
					return err
				}
				b := views.BookingFromRecord(cur)
				in := f.overlay(cmd.Flags(), views.BookingInput{
					UserID:      user,
					FullName:    b.FullName,
					StudentID:   b.StudentID,
					CarPlate:    b.CarPlate,
					Date:        b.Date,
					TimeIn:      b.TimeIn,
					TimeOut:     b.TimeOut,
					Zone:        b.Zone,
					LotNumber:   b.LotNumber,
					ParkingType: b.ParkingType,
				})
				if views.Duration(in.TimeIn, in.TimeOut) == "" {
					return fmt.Errorf("end time must be after start time")
				}
				if err := a.Bookings.Update(ctx, args[0], in); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
				return nil
			})
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newCancelCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel one of your bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := r.userID()
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Bookings.Delete(ctx, user, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
				return nil
			})
		},
	}
}
