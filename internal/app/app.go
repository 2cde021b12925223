// Package app builds the client's object graph from config: one cache
// provider, one snapshot cache, one remote store and one loader per process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/parkcache"
	"github.com/unkn0wn-root/parkcache/codec"
	"github.com/unkn0wn-root/parkcache/genstore"
	asynchook "github.com/unkn0wn-root/parkcache/hooks/async"
	"github.com/unkn0wn-root/parkcache/internal/config"
	logruslog "github.com/unkn0wn-root/parkcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/parkcache/log/slog"
	zaplog "github.com/unkn0wn-root/parkcache/log/zap"
	pr "github.com/unkn0wn-root/parkcache/provider"
	bcprov "github.com/unkn0wn-root/parkcache/provider/bigcache"
	"github.com/unkn0wn-root/parkcache/provider/memory"
	redisprov "github.com/unkn0wn-root/parkcache/provider/redis"
	rprov "github.com/unkn0wn-root/parkcache/provider/ristretto"
	sqliteprov "github.com/unkn0wn-root/parkcache/provider/sqlite"
	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
	"github.com/unkn0wn-root/parkcache/remote/memstore"
	"github.com/unkn0wn-root/parkcache/remote/sqlitestore"
	"github.com/unkn0wn-root/parkcache/sloghooks"
	"github.com/unkn0wn-root/parkcache/views"
)

// App is the wired client.
type App struct {
	Config   config.Config
	Log      parkcache.Logger
	Cache    parkcache.Snapshots
	Store    remote.Store
	Loader   *parkcache.Loader
	Bookings *views.Bookings

	hooks *asynchook.Hooks
	sync  func() error
}

// New wires an App. Log and hook output goes to logOut.
func New(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	logOut = zapcore.Lock(zapcore.AddSync(logOut))
	log, syncLog, err := NewLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, sync: syncLog}

	hl := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slogLevel(cfg.LogLevel)}))
	a.hooks = asynchook.New(sloghooks.New(hl, sloghooks.Options{
		SelfHealEvery: cfg.HookSample,
		StaleEvery:    cfg.HookSample,
	}), 1, 256)

	p, gs, err := NewProvider(ctx, cfg)
	if err != nil {
		a.hooks.Close()
		return nil, err
	}
	cd, err := NewCodec(cfg)
	if err != nil {
		_ = p.Close(ctx)
		a.hooks.Close()
		return nil, err
	}
	a.Cache, err = parkcache.NewSnapshots(parkcache.Options[[]record.Record]{
		Namespace:     cfg.Namespace,
		Provider:      p,
		Codec:         cd,
		Logger:        log,
		Hooks:         a.hooks,
		DefaultTTL:    cfg.CacheTTL,
		SchemaVersion: cfg.SchemaVersion,
		GenStore:      gs,
	})
	if err != nil {
		_ = p.Close(ctx)
		a.hooks.Close()
		return nil, err
	}

	a.Store, err = NewRemote(cfg)
	if err != nil {
		_ = a.Cache.Close(ctx)
		a.hooks.Close()
		return nil, err
	}

	a.Loader, err = parkcache.NewLoader(parkcache.LoaderOptions{
		Cache:        a.Cache,
		Remote:       a.Store,
		Logger:       log,
		Hooks:        a.hooks,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Bookings = views.NewBookings(a.Store, a.Cache, log)
	return a, nil
}

// Close waits for background snapshot writes, then releases everything.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Loader != nil {
		if err := a.Loader.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("wait for snapshot writes: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.hooks != nil {
		a.hooks.Close()
	}
	if a.sync != nil {
		_ = a.sync()
	}
	return errors.Join(errs...)
}

// NewLogger picks the logging backend. The returned func flushes buffered
// output.
func NewLogger(cfg config.Config, w io.Writer) (parkcache.Logger, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Log {
	case "zap":
		l, err := zaplog.New(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("zap logger: %w", err)
		}
		return l, l.L.Sync, nil
	case "logrus":
		l, err := logruslog.New(w, cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("logrus logger: %w", err)
		}
		return l, nop, nil
	case "slog":
		l, err := slogadapter.New(w, cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("slog logger: %w", err)
		}
		return l, nop, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", cfg.Log)
	}
}

func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewProvider opens the configured byte store. The GenStore is nil unless
// the provider is shared between processes.
func NewProvider(ctx context.Context, cfg config.Config) (pr.Provider, genstore.GenStore, error) {
	switch cfg.Provider {
	case "sqlite":
		p, err := sqliteprov.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite cache: %w", err)
		}
		return p, nil, nil
	case "memory":
		return memory.New(), nil, nil
	case "bigcache":
		p, err := bcprov.New(ctx, bcprov.Config{
			LifeWindow:   cfg.CacheTTL,
			MaxEntrySize: cfg.MaxEntryBytes,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bigcache: %w", err)
		}
		return p, nil, nil
	case "ristretto":
		p, err := rprov.New(rprov.Config{
			NumCounters: 10_000,
			MaxCost:     64 << 20,
			BufferItems: 64,
			Wait:        true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("ristretto: %w", err)
		}
		return p, nil, nil
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		p, err := redisprov.New(redisprov.Config{Client: rdb, CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return p, genstore.NewRedisGenStore(rdb, cfg.Namespace).Shared(), nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewCodec picks the snapshot encoding, bounded by MaxEntryBytes on decode.
func NewCodec(cfg config.Config) (codec.Codec[[]record.Record], error) {
	var inner codec.Codec[[]record.Record]
	switch cfg.Codec {
	case "json":
		inner = codec.JSON[[]record.Record]{}
	case "cbor":
		c, err := codec.NewCBOR[[]record.Record](true)
		if err != nil {
			return nil, fmt.Errorf("cbor codec: %w", err)
		}
		inner = c
	case "msgpack":
		inner = codec.Msgpack[[]record.Record]{}
	case "protobuf":
		inner = codec.NewRecords()
	default:
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	if cfg.MaxEntryBytes <= 0 {
		return inner, nil
	}
	return codec.LimitCodec[[]record.Record]{Inner: inner, MaxDecode: cfg.MaxEntryBytes}, nil
}

// NewRemote opens the backing document store.
func NewRemote(cfg config.Config) (remote.Store, error) {
	switch cfg.Remote {
	case "sqlite":
		s, err := sqlitestore.Open(cfg.RemotePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite remote: %w", err)
		}
		return s, nil
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown remote %q", cfg.Remote)
	}
}
