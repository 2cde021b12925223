// Package views are the screens of the parking client, reduced to the data
// they show. Each view holds one loader subscription and derives what it
// displays from the subscription's current data on every call.
package views

import (
	"context"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/internal/util"
)

const (
	ZonesCollection    = "zones"
	ZonesKey           = "cachedZones"
	BookingsCollection = "parkingBookings"
	BookingsKey        = "cachedBookings"
)

var (
	ZonesParams    = parkcache.Params{CollectionName: ZonesCollection, StorageKey: ZonesKey}
	BookingsParams = parkcache.Params{CollectionName: BookingsCollection, StorageKey: BookingsKey}
)

// SpotsParams addresses the spots of one zone.
func SpotsParams(zoneID string) parkcache.Params {
	return parkcache.Params{
		CollectionName: ZonesCollection + "/" + zoneID + "/parkingSpots",
		StorageKey:     util.Scoped("parkingSpots", zoneID),
	}
}

type view struct {
	sub *parkcache.Subscription
}

func (v view) State() parkcache.State   { return v.sub.State() }
func (v view) Changed() <-chan struct{} { return v.sub.Changed() }
func (v view) Refresh()                 { v.sub.Refresh() }
func (v view) Close()                   { v.sub.Close() }

func (v view) Settled(ctx context.Context) (parkcache.State, error) {
	return v.sub.Settled(ctx)
}
