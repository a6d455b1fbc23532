package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hightemp/mapcode/internal/cache"
	"github.com/hightemp/mapcode/internal/config"
	"github.com/hightemp/mapcode/internal/mapcodeapi"
	"github.com/hightemp/mapcode/internal/snapshot"
	"github.com/hightemp/mapcode/internal/source"
	"github.com/hightemp/mapcode/internal/territory"
)

// app holds what the lookup commands share: configuration, the result
// cache, the territory table and the source built from them.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	mode   source.Mode

	store     cache.Store
	fileStore *cache.FileStore
	redis     *cache.RedisStore

	names territory.Table
	meta  *snapshot.Metadata
	src   source.Source
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, source.Mode, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, "", withCode(ExitInvalidInput, err)
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if apiHost != "" {
		cfg.API.Host = apiHost
	}
	if sourceMode != "" {
		cfg.Source.Mode = sourceMode
	}
	if offline {
		cfg.Source.Mode = string(source.ModeOffline)
	}

	mode, err := source.ParseMode(cfg.Source.Mode)
	if err != nil {
		return nil, "", withCode(ExitInvalidInput, err)
	}
	return cfg, mode, nil
}

// newApp loads configuration, opens the result cache and builds the source.
func newApp(ctx context.Context) (*app, error) {
	cfg, mode, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: cfg.NewLogger(), mode: mode}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	mgr := snapshot.NewManager(cfg.Cache.Dir)
	if snapshotAt != "" {
		a.names, a.meta, err = mgr.TableByDate(snapshotAt)
		if err != nil {
			a.close()
			return nil, withCode(ExitNoData, err)
		}
	} else {
		a.names, a.meta, err = mgr.LatestTable()
		if err != nil {
			a.logger.Warn("could not load territory snapshot, using built-in names", "error", err)
			a.names = territory.Embedded()
		}
	}

	a.src = a.buildSource()
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if addr := a.cfg.Cache.Redis.Addr; addr != "" {
		rs, err := cache.OpenRedis(ctx, cache.RedisOptions{
			Addr:     addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
			TTLDays:  a.cfg.Cache.TTLDays,
		})
		if err != nil {
			return withCode(ExitRemoteFailed, err)
		}
		a.redis = rs
		a.store = rs
		return nil
	}

	if err := config.EnsureDir(a.cfg.Cache.Dir); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	fs := cache.NewFileStore(config.ResultCachePath(a.cfg.Cache.Dir), a.cfg.Cache.TTLDays)
	if err := fs.Load(); err != nil {
		a.logger.Warn("could not load result cache, starting empty", "path", fs.Path(), "error", err)
	}
	a.fileStore = fs
	a.store = fs
	return nil
}

func (a *app) apiClient() *mapcodeapi.Client {
	return mapcodeapi.NewClient(mapcodeapi.Options{
		BaseURL:  a.cfg.API.Host,
		ClientID: a.cfg.API.Client,
		AllowLog: a.cfg.API.AllowLog,
		Timeout:  a.cfg.API.Timeout,
		Retries:  a.cfg.API.Retries,
	})
}

func (a *app) buildSource() source.Source {
	offlineSrc := source.NewOffline(a.store, a.names, a.logger)
	if a.mode == source.ModeOffline {
		return offlineSrc
	}

	onlineSrc := source.NewOnline(a.apiClient(), a.store, a.logger)
	if a.mode == source.ModeOnline {
		return onlineSrc
	}
	return source.NewFallback(onlineSrc, offlineSrc, a.logger)
}

// close persists the result cache and releases connections.
func (a *app) close() {
	if err := a.store.Save(); err != nil {
		a.logger.Warn("could not save result cache", "error", err)
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// probeOnline periodically tries to switch a fallback source back online.
func probeOnline(ctx context.Context, f *source.Fallback, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f.Mode() == source.ModeOffline {
				f.TryOnline(ctx)
			}
		}
	}
}

// saveEvery persists the result cache periodically.
func saveEvery(ctx context.Context, a *app, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.store.Save(); err != nil {
				a.logger.Warn("could not save result cache", "error", err)
			}
		}
	}
}
