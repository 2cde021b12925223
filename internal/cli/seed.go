package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/parkcache/internal/app"
	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
	"github.com/unkn0wn-root/parkcache/views"
)

type demoZone struct {
	id, name     string
	bays, booked int
	okuEvery     int
}

var demoZones = []demoZone{
	{id: "A", name: "Zone A (Main Gate)", bays: 12, booked: 3, okuEvery: 6},
	{id: "B", name: "Zone B (Library)", bays: 8, booked: 5, okuEvery: 4},
	{id: "C", name: "Zone C (Sports Hall)", bays: 6, booked: 6, okuEvery: 0},
}

// demoData returns the zone documents and the bays of each zone.
func demoData() ([]record.Record, map[string][]record.Record) {
	zones := make([]record.Record, 0, len(demoZones))
	spots := make(map[string][]record.Record, len(demoZones))
	for _, z := range demoZones {
		free := 0
		bays := make([]record.Record, 0, z.bays)
		for i := 1; i <= z.bays; i++ {
			typ := "regular"
			if z.okuEvery > 0 && i%z.okuEvery == 0 {
				typ = "disabled"
			}
			status := "available"
			if i <= z.booked {
				status = "booked"
			} else {
				free++
			}
			bays = append(bays, record.Record{
				record.IDField: fmt.Sprintf("%s%d", z.id, i),
				"status":       status,
				"type":         typ,
			})
		}
		zones = append(zones, record.Record{
			record.IDField:   z.id,
			"name":           z.name,
			"availableSpots": free,
		})
		spots[z.id] = bays
	}
	return zones, spots
}

func newSeedCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo zones and bays into the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, ok := a.Store.(remote.Seeder)
				if !ok {
					return fmt.Errorf("remote %q cannot be seeded", r.cfg.Remote)
				}
				zones, spots := demoData()
				if err := s.Seed(ctx, views.ZonesCollection, zones); err != nil {
					return err
				}
				for _, z := range zones {
					if err := s.Seed(ctx, views.SpotsParams(z.ID()).CollectionName, spots[z.ID()]); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d zones\n", len(zones))
				return nil
			})
		},
	}
}
