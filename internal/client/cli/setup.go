package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/dmitrijs2005/gophsession/internal/client/auth"
	"github.com/dmitrijs2005/gophsession/internal/client/config"
	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/dmitrijs2005/gophsession/internal/client/localdb"
	"github.com/dmitrijs2005/gophsession/internal/client/navigation"
	"github.com/dmitrijs2005/gophsession/internal/client/profiles"
	"github.com/dmitrijs2005/gophsession/internal/client/repositories/blobs"
	"github.com/dmitrijs2005/gophsession/internal/client/repositories/keychain"
	"github.com/dmitrijs2005/gophsession/internal/client/securestore"
	"github.com/dmitrijs2005/gophsession/internal/common"
	"github.com/dmitrijs2005/gophsession/internal/filex"
	"github.com/dmitrijs2005/gophsession/internal/logging"
	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	keychainFile = "keychain.db"
	blobsFile    = "sessions.bolt"
	keyPrefix    = "gophsession:"
)

// Program is the fully wired client: the REPL plus the components it
// starts and tears down.
type Program struct {
	App      *App
	Manager  *auth.Manager
	Identity *identity.Client

	log     logging.Logger
	closers []func() error
}

// NewLogger builds the logger selected by format: "text" or "json" use
// log/slog, "zap" uses a production zap logger. Debug level is enabled
// when debug is set.
func NewLogger(format string, debug bool, w io.Writer) (logging.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	noSync := func() error { return nil }

	switch format {
	case "", "text":
		return logging.NewTextLogger(w, level), noSync, nil
	case "json":
		return logging.NewJSONLogger(w, level), noSync, nil
	case "zap":
		zc := zap.NewProductionConfig()
		if debug {
			zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		zl, err := zc.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
		}
		l := logging.NewZapLogger(zl)
		return l, func() error { _ = l.Sync(); return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown log format %q", format)
}

// NewProgram wires every component from cfg. Prompts (the keychain
// passphrase) are read from in and written to out.
func NewProgram(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (_ *Program, err error) {
	p := &Program{log: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, p.closeResources())
		}
	}()

	dataDir, err := filex.EnsureDataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir

	router := navigation.NewRouter(navigation.RouteSignIn)
	app := NewApp(nil, router, log, in, out)

	keys, err := p.openKeychain(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	blobStore, err := p.openBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := securestore.NewStore(keys, blobStore, log.With("module", "securestore"),
		securestore.WithMetrics(cfg.StorageMetrics))

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	client, err := identity.NewClient(cfg.BackendURL, cfg.AnonKey,
		identity.WithHTTPClient(httpClient),
		identity.WithStorage(store),
		identity.WithLogger(log.With("module", "identity")),
		identity.WithRefreshMargin(cfg.RefreshMargin),
	)
	if err != nil {
		return nil, err
	}

	dir, err := p.openDirectory(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	manager := auth.NewManager(client, dir, router, log.With("module", "auth"),
		auth.WithRequestTimeout(cfg.RequestTimeout))

	app.manager = manager
	p.App = app
	p.Manager = manager
	p.Identity = client
	return p, nil
}

func (p *Program) openKeychain(ctx context.Context, cfg *config.Config, app *App) (keychain.Repository, error) {
	switch cfg.KeychainBackend {
	case config.KeychainMemory:
		return keychain.NewMemoryRepository(), nil

	case config.KeychainSQLite:
		db, err := localdb.Open(ctx, filepath.Join(cfg.DataDir, keychainFile))
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, db.Close)

		passphrase, err := getPassword(app.out, "Device keychain passphrase")
		if err != nil {
			return nil, err
		}
		defer common.WipeByteArray(passphrase)

		return keychain.NewSQLiteRepository(ctx, db, passphrase)
	}
	return nil, fmt.Errorf("unknown keychain backend %q", cfg.KeychainBackend)
}

func (p *Program) openBlobs(ctx context.Context, cfg *config.Config) (blobs.Repository, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendBolt:
		repo, err := blobs.NewBoltRepositoryFromFile(filepath.Join(cfg.DataDir, blobsFile), &bbolt.Options{Timeout: cfg.RequestTimeout})
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, repo.Close)
		return repo, nil

	case config.BlobBackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		p.closers = append(p.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return blobs.NewRedisRepository(rdb, keyPrefix), nil

	case config.BlobBackendS3:
		return blobs.NewS3Repository(ctx, blobs.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    keyPrefix,
		})
	}
	return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
}

func (p *Program) openDirectory(ctx context.Context, cfg *config.Config, httpClient *http.Client) (profiles.Directory, error) {
	switch cfg.Directory {
	case config.DirectoryREST:
		return profiles.NewRESTDirectory(cfg.BackendURL, cfg.AnonKey, httpClient)

	case config.DirectoryPostgres:
		repo, err := profiles.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, repo.Close)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown username directory %q", cfg.Directory)
}

// Run starts the manager and the session auto-refresh, then blocks in the
// REPL until the user exits or ctx is done.
func (p *Program) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.Manager.Start(ctx); err != nil {
		return err
	}
	go p.Identity.StartAutoRefresh(ctx, identity.AutoRefreshTick)
	p.log.Info(ctx, "client started", "storage_key", p.Identity.StorageKey())

	p.App.Root(ctx)
	return nil
}

// Close stops the manager and releases storage handles in reverse order of
// opening.
func (p *Program) Close() error {
	if p.Manager != nil {
		p.Manager.Close()
	}
	return p.closeResources()
}

func (p *Program) closeResources() error {
	var err error
	for i := len(p.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, p.closers[i]())
	}
	p.closers = nil
	return err
}
