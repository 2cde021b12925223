package views

import (
	"context"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/record"
)

// Band is the availability label shown next to a zone.
type Band string

const (
	BandFull      Band = "full"
	BandLimited   Band = "limited"
	BandAvailable Band = "available"
)

// limitedBelow is the spot count under which a zone is shown as limited.
const limitedBelow = 5

func ZoneBand(availableSpots int) Band {
	switch {
	case availableSpots <= 0:
		return BandFull
	case availableSpots < limitedBelow:
		return BandLimited
	default:
		return BandAvailable
	}
}

type Zone struct {
	ID             string
	Name           string
	AvailableSpots int
	Band           Band
}

func ZoneFromRecord(r record.Record) Zone {
	n := r.Int("availableSpots")
	return Zone{
		ID:             r.ID(),
		Name:           r.String("name"),
		AvailableSpots: n,
		Band:           ZoneBand(n),
	}
}

// ZonesView lists parking zones.
type ZonesView struct{ view }

func OpenZones(ctx context.Context, l *parkcache.Loader) *ZonesView {
	return &ZonesView{view{sub: l.Use(ctx, ZonesParams)}}
}

func (v *ZonesView) Zones() []Zone {
	data := v.sub.State().Data
	out := make([]Zone, 0, len(data))
	for _, r := range data {
		out = append(out, ZoneFromRecord(r))
	}
	return out
}
