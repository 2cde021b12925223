package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/parkcache/internal/app"
	"github.com/unkn0wn-root/parkcache/views"
)

func newZonesCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List parking zones and their availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				v := views.OpenZones(ctx, a.Loader)
				defer v.Close()
				return follow(ctx, cmd.OutOrStdout(), r.wait, v, func(w io.Writer) {
					fmt.Fprintln(w, "ZONE\tNAME\tFREE\tSTATUS")
					for _, z := range v.Zones() {
						fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", z.ID, z.Name, z.AvailableSpots, z.Band)
					}
				})
			})
		},
	}
}

func newSpotsCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "spots <zone>",
		Short: "Show the bays of a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				v := views.OpenSpots(ctx, a.Loader, args[0])
				defer v.Close()
				return follow(ctx, cmd.OutOrStdout(), r.wait, v, func(w io.Writer) {
					fmt.Fprintln(w, "BAY\tSTATUS\tTYPE\tSHOWN AS")
					for _, s := range v.Spots() {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Type, s.Display)
					}
					c := v.Counts()
					fmt.Fprintf(w, "\nbooked %d\tOKU %d\tavailable %d\n", c.Booked, c.Disabled, c.Available)
				})
			})
		},
	}
}

func newSessionsCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List your active bookings and booking history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := r.userID()
			if err != nil {
				return err
			}
			loc, err := r.cfg.Location()
			if err != nil {
				return err
			}
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				v := views.OpenSessions(ctx, a.Loader, views.SessionsOptions{Location: loc})
				defer v.Close()
				return follow(ctx, cmd.OutOrStdout(), r.wait, v, func(w io.Writer) {
					s := v.Split(user)
					fmt.Fprintln(w, "ACTIVE")
					writeBookings(w, s.Active)
					fmt.Fprintln(w, "\nHISTORY")
					writeBookings(w, s.History)
				})
			})
		},
	}
}

func writeBookings(w io.Writer, bs []views.Booking) {
	if len(bs) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	fmt.Fprintln(w, "ID\tDATE\tTIME\tDURATION\tZONE\tBAY\tPLATE")
	for _, b := range bs {
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Date, b.TimeIn, b.TimeOut, b.Duration, b.Zone, b.LotNumber, b.CarPlate)
	}
}
