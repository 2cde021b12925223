package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/unkn0wn-root/parkcache"
)

type watchable interface {
	State() parkcache.State
	Changed() <-chan struct{}
	Settled(ctx context.Context) (parkcache.State, error)
}

// follow draws the cached data as soon as it is applied and the live data
// once the fetch ends. A failed fetch leaves the cached data on screen
// followed by the error.
func follow(ctx context.Context, w io.Writer, wait time.Duration, v watchable, draw func(io.Writer)) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	drewCached := false
	for {
		ch := v.Changed()
		st := v.State()
		if st.Phase == parkcache.PhaseCached && !drewCached {
			fmt.Fprintln(w, "(cached)")
			table(w, draw)
			drewCached = true
		}
		if !st.Loading {
			break
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("live data did not arrive within %s", wait)
		}
	}

	st, err := v.Settled(ctx)
	if err != nil {
		return err
	}
	switch st.Phase {
	case parkcache.PhaseLive:
		if drewCached {
			fmt.Fprintln(w, "(live)")
		}
		table(w, draw)
		return nil
	case parkcache.PhaseError:
		if !drewCached && len(st.Data) > 0 {
			fmt.Fprintln(w, "(cached)")
			table(w, draw)
		}
		if len(st.Data) > 0 {
			fmt.Fprintf(w, "offline: %v\n", st.Err)
			return nil
		}
		return st.Err
	default:
		table(w, draw)
		return nil
	}
}

func table(w io.Writer, draw func(io.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	draw(tw)
	_ = tw.Flush()
}
