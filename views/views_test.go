package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/codec"
	"github.com/unkn0wn-root/parkcache/provider/memory"
	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote/memstore"
)

type fixture struct {
	store  *memstore.Store
	cache  parkcache.Snapshots
	loader *parkcache.Loader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cc, err := parkcache.NewSnapshots(parkcache.Options[[]record.Record]{
		Namespace: "parking",
		Provider:  memory.New(),
		Codec:     codec.JSON[[]record.Record]{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close(context.Background()) })

	st := memstore.New()
	l, err := parkcache.NewLoader(parkcache.LoaderOptions{Cache: cc, Remote: st})
	require.NoError(t, err)
	return &fixture{store: st, cache: cc, loader: l}
}

func settled(t *testing.T, v interface {
	Settled(context.Context) (parkcache.State, error)
}) parkcache.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := v.Settled(ctx)
	require.NoError(t, err)
	return st
}

func drain(t *testing.T, l *parkcache.Loader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
}
