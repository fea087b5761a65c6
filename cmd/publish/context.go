package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/tendant/simple-publish/internal/logger"
	"github.com/tendant/simple-publish/pkg/publish"
	"github.com/tendant/simple-publish/pkg/publish/config"
	"github.com/tendant/simple-publish/pkg/publish/repo/memory"
	memorystorage "github.com/tendant/simple-publish/pkg/publish/storage/memory"
)

const lockFileName = ".publish.lock"

type globalOptions struct {
	envFile  string
	logLevel string
	logMode  string
}

type commandContext struct {
	opts *globalOptions

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *logger.Logger
	logErr     error
}

func newCommandContext(opts *globalOptions) *commandContext {
	return &commandContext{opts: opts}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.opts.envFile))
		if err != nil {
			c.configErr = err
			return
		}
		if c.opts.logLevel != "" {
			cfg.Log.Level = c.opts.logLevel
		}
		if c.opts.logMode != "" {
			cfg.Log.Mode = c.opts.logMode
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*logger.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logger.New(cfg.Log.Mode, cfg.Log.Level)
	})
	return c.log, c.logErr
}

// needs lists what a command touches. Stores a command does not need are
// replaced by in-memory ones so the service can still be built.
type needs struct {
	store       bool
	repository  bool
	synthesizer bool
	deckOwner   bool
}

func (n needs) sections() []config.Section {
	var sections []config.Section
	if n.store {
		sections = append(sections, config.SectionStorage)
	}
	if n.repository {
		sections = append(sections, config.SectionDatabase)
	}
	if n.synthesizer {
		sections = append(sections, config.SectionSynthesis)
	}
	if n.deckOwner {
		sections = append(sections, config.SectionDeckOwner)
	}
	return sections
}

// openService checks the configuration for n and builds a service. The
// returned release function closes every store it opened.
func (c *commandContext) openService(ctx context.Context, n needs) (publish.Service, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Require(n.sections()...); err != nil {
		return nil, nil, err
	}
	log, err := c.logger()
	if err != nil {
		return nil, nil, err
	}
	owner, err := cfg.DefaultOwner()
	if err != nil {
		return nil, nil, err
	}
	synth, err := cfg.BuildSynthesizer()
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		log.Sync()
	}

	var store publish.BlobStore = memorystorage.New()
	backend := "memory"
	if n.store {
		s, closeStore, err := cfg.BuildBlobStore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open blob store: %w", err)
		}
		closers = append(closers, func() {
			if err := closeStore(); err != nil {
				log.Warn("failed to close blob store", "error", err)
			}
		})
		store, backend = s, cfg.Storage.Backend
	}

	var repo publish.Repository = memory.New()
	if n.repository {
		lazy := &lazyRepository{open: cfg.BuildRepository}
		closers = append(closers, lazy.Close)
		repo = lazy
	}

	opts := []publish.Option{
		publish.WithBlobStore(backend, store),
		publish.WithRepository(repo),
		publish.WithVoices(cfg.Voices()),
		publish.WithHooks(logHooks(log)),
		publish.WithUploadConcurrency(cfg.Publish.UploadConcurrency),
		publish.WithBatchConcurrency(cfg.Publish.BatchConcurrency),
		publish.WithSynthesisConcurrency(cfg.Synthesis.Concurrency),
		publish.WithDefaultOwner(owner),
	}
	if synth != nil {
		opts = append(opts, publish.WithSynthesizer(synth))
	}

	svc, err := publish.New(opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

// lazyRepository opens the database on the first transaction, so a unit
// rejected during validation never connects.
type lazyRepository struct {
	open func(ctx context.Context) (publish.Repository, func(), error)

	mu    sync.Mutex
	repo  publish.Repository
	close func()
}

func (r *lazyRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx publish.MetadataTx) error) error {
	repo, err := r.get(ctx)
	if err != nil {
		return err
	}
	return repo.WithinTx(ctx, fn)
}

func (r *lazyRepository) get(ctx context.Context) (publish.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.repo != nil {
		return r.repo, nil
	}
	repo, closeRepo, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.repo, r.close = repo, closeRepo
	return repo, nil
}

// Close releases the database if it was opened
func (r *lazyRepository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.close != nil {
		r.close()
		r.close = nil
	}
}

func logHooks(log *logger.Logger) *publish.Hooks {
	hooks := publish.LoggingHook(log.Printf)
	hooks.AfterCommit = append(hooks.AfterCommit, func(hctx *publish.HookContext, res *publish.Result) {
		log.Info("metadata committed",
			"unit", res.Unit.String(),
			"objects", len(res.Keys),
			"inserted", res.Inserted,
		)
	})
	return hooks
}

// lockFolder takes the advisory lock of a staging folder. Folders that do not
// exist are left to validation to report.
func lockFolder(dir string) (func(), error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return func() {}, nil
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock on %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s is being published by another process", dir)
	}
	return func() {
		_ = os.Remove(lock.Path())
		_ = lock.Unlock()
	}, nil
}
