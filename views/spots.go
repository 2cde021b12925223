package views

import (
	"context"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/record"
)

// SpotDisplay is how a bay is drawn on the lot grid.
type SpotDisplay string

const (
	SpotBooked    SpotDisplay = "booked"
	SpotDisabled  SpotDisplay = "disabled"
	SpotAvailable SpotDisplay = "available"
)

type Spot struct {
	ID      string
	Status  string // available | booked | disabled
	Type    string // regular | disabled
	Display SpotDisplay
}

// Selectable reports whether the bay can be picked for a booking.
func (s Spot) Selectable() bool { return s.Status == "available" }

// ClassifySpot: a booked bay shows as booked even when it is an OKU bay.
func ClassifySpot(status, typ string) SpotDisplay {
	switch {
	case status == "booked":
		return SpotBooked
	case typ == "disabled":
		return SpotDisabled
	default:
		return SpotAvailable
	}
}

func SpotFromRecord(r record.Record) Spot {
	status, typ := r.String("status"), r.String("type")
	return Spot{ID: r.ID(), Status: status, Type: typ, Display: ClassifySpot(status, typ)}
}

type SpotCounts struct {
	Booked    int
	Disabled  int
	Available int
}

// SpotsView is the bay grid of one zone.
type SpotsView struct {
	view
	zoneID string
}

func OpenSpots(ctx context.Context, l *parkcache.Loader, zoneID string) *SpotsView {
	return &SpotsView{view: view{sub: l.Use(ctx, SpotsParams(zoneID))}, zoneID: zoneID}
}

// SetZone switches the grid to another zone. The previous zone's bays stay
// visible until the new zone's data arrives.
func (v *SpotsView) SetZone(zoneID string) {
	v.zoneID = zoneID
	v.sub.Update(SpotsParams(zoneID))
}

func (v *SpotsView) ZoneID() string { return v.zoneID }

func (v *SpotsView) Spots() []Spot {
	data := v.sub.State().Data
	out := make([]Spot, 0, len(data))
	for _, r := range data {
		out = append(out, SpotFromRecord(r))
	}
	return out
}

func (v *SpotsView) Counts() SpotCounts {
	var c SpotCounts
	for _, s := range v.Spots() {
		switch s.Display {
		case SpotBooked:
			c.Booked++
		case SpotDisabled:
			c.Disabled++
		default:
			c.Available++
		}
	}
	return c
}
