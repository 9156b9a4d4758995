package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mediasort/internal/capturedate"
	"mediasort/internal/catalog"
	"mediasort/internal/config"
	"mediasort/internal/fingerprint"
	"mediasort/internal/logging"
	"mediasort/internal/placement"
	"mediasort/internal/scanner"
)

// ErrRunActive reports that another process holds the run lock.
var ErrRunActive = errors.New("another ingestion run is active")

// DateResolver resolves a capture date for a media file. Implementations
// must be safe for concurrent use.
type DateResolver interface {
	Resolve(path, name string) (capturedate.Date, bool)
}

// Option customizes a Runner; primarily a test seam.
type Option func(*Runner)

// WithFingerprinter overrides the digest implementation.
func WithFingerprinter(fp fingerprint.Fingerprinter) Option {
	return func(r *Runner) { r.fp = fp }
}

// WithDateResolver overrides capture-date resolution.
func WithDateResolver(resolver DateResolver) Option {
	return func(r *Runner) { r.dates = resolver }
}

// WithProgressWriter redirects the progress stream, defaulting to stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Runner) { r.progressOut = w }
}

// Runner executes one ingestion run against a catalog store. A Runner is
// single-use: construct, Run, discard.
type Runner struct {
	cfg         *config.Config
	store       *catalog.Store
	logger      *slog.Logger
	mode        Mode
	dryRun      bool
	workers     int
	runID       string
	fp          fingerprint.Fingerprinter
	dates       DateResolver
	fx          effects
	state       atomic.Int32
	progressOut io.Writer
	progress    *reporter
}

// New builds a Runner. The store decides dry-run semantics: an ephemeral
// store means no filesystem mutation and no run lock.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, mode Mode, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("ingest: nil config")
	}
	if store == nil {
		return nil, errors.New("ingest: nil store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "ingest"),
		mode:    mode,
		dryRun:  store.Ephemeral(),
		workers: cfg.WorkerCount(),
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fp == nil {
		fp, err := fingerprint.New(cfg.Hashing.Algorithm)
		if err != nil {
			return nil, err
		}
		r.fp = fp
	}
	if r.dates == nil {
		r.dates = capturedate.NewResolver(func(path string) bool {
			return cfg.IsImage(filepath.Ext(path))
		})
	}
	if r.dryRun {
		r.fx = simulateEffects{root: cfg.Paths.DestinationDir}
	} else {
		r.fx = copyEffects{root: cfg.Paths.DestinationDir}
	}
	r.progress = newReporter(r.logger, r.progressOut)
	return r, nil
}

// RunID returns the unique identifier attached to this run's log lines.
func (r *Runner) RunID() string { return r.runID }

// State reports the run's current phase.
func (r *Runner) State() State { return State(r.state.Load()) }

// Stats aggregates the catalog mid-run or after completion.
func (r *Runner) Stats(ctx context.Context) (catalog.Stats, error) {
	return r.store.Aggregate(ctx)
}

func (r *Runner) setState(s State) { r.state.Store(int32(s)) }

// Run executes the full pipeline and always returns whatever stats were
// recorded, even when it also returns an error.
func (r *Runner) Run(ctx context.Context) (catalog.Stats, error) {
	start := time.Now()
	if !r.dryRun {
		lock := flock.New(r.cfg.Paths.DatabasePath + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return catalog.Stats{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return catalog.Stats{}, ErrRunActive
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	ctx = logging.WithRunID(ctx, r.runID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run starting",
		logging.String("mode", string(r.mode)),
		logging.Bool("dry_run", r.dryRun),
		logging.Int("workers", r.workers),
		logging.String("source", r.cfg.Paths.SourceDir),
		logging.String("destination", r.cfg.Paths.DestinationDir),
	)
	r.progress.start()
	defer r.progress.stop()

	var runErr error
	if r.mode == ModeMerge && !r.dryRun {
		r.setState(StatePreIndexing)
		runErr = r.preIndex(ctx, logger)
	}
	if runErr == nil {
		r.setState(StateScanning)
		runErr = r.processSource(ctx, logger)
	}

	r.setState(StateFinalizing)
	stats, finErr := r.finalize(ctx, logger)
	r.setState(StateDone)

	logger.Info("run finished",
		logging.Int("total", stats.TotalFiles),
		logging.Int("processed", stats.ProcessedFiles),
		logging.Int("duplicates", stats.DuplicateFiles),
		logging.Int("errors", stats.ErrorFiles),
		logging.Duration("elapsed", time.Since(start)),
	)
	return stats, errors.Join(runErr, finErr)
}

// scanRules builds the walk policy from configuration.
func (r *Runner) scanRules() scanner.Rules {
	supported := r.cfg.SupportedExtensions()
	return scanner.Rules{
		ExcludeHidden:   r.cfg.Exclude.Hidden,
		ExcludePatterns: r.cfg.Exclude.Patterns,
		Supported: func(name string) bool {
			_, ok := supported[strings.ToLower(filepath.Ext(name))]
			return ok
		},
	}
}

// processSource walks the source tree, recording unsupported files inline
// and fanning supported files out to the worker pool.
func (r *Runner) processSource(ctx context.Context, logger *slog.Logger) error {
	files := make(chan scanner.File, r.workers*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		worker := fmt.Sprintf("worker-%d", i+1)
		g.Go(func() error {
			wctx := logging.WithWorker(gctx, worker)
			// A file taken off the channel always finishes its pipeline:
			// cancellation is honored between files only, never mid-copy,
			// so every file touched on disk has a ledger row.
			fileCtx := context.WithoutCancel(wctx)
			for file := range files {
				if err := wctx.Err(); err != nil {
					return err
				}
				if err := r.processFile(fileCtx, worker, file); err != nil {
					return err
				}
			}
			return nil
		})
	}

	summary, scanErr := scanner.Scan(gctx, r.cfg.Paths.SourceDir, r.scanRules(),
		func(file scanner.File) error {
			select {
			case files <- file:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		},
		func(file scanner.File) error {
			return r.recordUnsupported(gctx, file)
		},
	)
	r.setState(StateProcessing)
	close(files)
	waitErr := g.Wait()

	logger.Info("source scan complete",
		logging.Int("supported", summary.Supported),
		logging.Int("unsupported", summary.Unsupported),
		logging.Int("excluded", summary.Excluded),
	)
	if scanErr != nil && waitErr != nil && errors.Is(scanErr, waitErr) {
		return waitErr
	}
	return errors.Join(scanErr, waitErr)
}

// processFile runs the per-file pipeline. Per-file failures append an error
// record and return nil; only storage failures propagate and abort the run.
func (r *Runner) processFile(ctx context.Context, worker string, file scanner.File) error {
	logger := logging.WithContext(ctx, r.logger)

	digest, err := r.fp.Fingerprint(ctx, file.Path)
	if err != nil {
		logger.Warn("fingerprint failed", logging.String("path", file.Path), logging.Error(err))
		return r.recordError(ctx, worker, file, "", err)
	}

	primary, err := r.store.ClaimDigest(ctx, digest)
	if err != nil {
		return fmt.Errorf("claim digest for %s: %w", file.Path, err)
	}

	year, month := catalog.UnknownDate, catalog.UnknownDate
	if date, ok := r.dates.Resolve(file.Path, file.Name); ok {
		year, month = date.Year, date.Month
	}
	kind := r.kindOf(file.Name)
	bucket := placement.Decide(kind, year, month, !primary)

	destDir, finalName, err := r.fx.place(file, bucket)
	if err != nil {
		logger.Warn("placement failed", logging.String("path", file.Path), logging.Error(err))
		if primary {
			if relErr := r.store.ReleaseDigest(ctx, digest); relErr != nil {
				return fmt.Errorf("release digest after failed placement: %w", relErr)
			}
		}
		return r.recordError(ctx, worker, file, digest, err)
	}

	status := catalog.StatusDuplicate
	if primary {
		status = r.fx.primaryStatus()
	}
	record := &catalog.Record{
		OriginalPath:    file.Path,
		Digest:          digest,
		Year:            year,
		Month:           month,
		MediaKind:       kind,
		Status:          status,
		DestinationPath: destDir,
		FinalName:       finalName,
		FileSize:        file.Size,
		WorkerID:        worker,
	}
	if _, err := r.store.Append(ctx, record); err != nil {
		return fmt.Errorf("append record for %s: %w", file.Path, err)
	}
	r.progress.observe(status, file.Size)
	return nil
}

// recordUnsupported runs synchronously inside the scan, before any worker
// could observe the file.
func (r *Runner) recordUnsupported(ctx context.Context, file scanner.File) error {
	record := &catalog.Record{
		OriginalPath: file.Path,
		Year:         catalog.UnknownDate,
		Month:        catalog.UnknownDate,
		Status:       catalog.StatusUnsupported,
		FileSize:     file.Size,
		Notes:        fmt.Sprintf("unsupported extension %q", filepath.Ext(file.Name)),
	}
	if _, err := r.store.Append(ctx, record); err != nil {
		return fmt.Errorf("append unsupported record for %s: %w", file.Path, err)
	}
	r.progress.observe(catalog.StatusUnsupported, file.Size)
	return nil
}

// recordError absorbs a per-file failure into the ledger. A failure to
// append the record itself means the store is gone and is fatal.
func (r *Runner) recordError(ctx context.Context, worker string, file scanner.File, digest string, cause error) error {
	record := &catalog.Record{
		OriginalPath: file.Path,
		Digest:       digest,
		Year:         catalog.UnknownDate,
		Month:        catalog.UnknownDate,
		MediaKind:    r.kindOf(file.Name),
		Status:       catalog.StatusError,
		FileSize:     file.Size,
		WorkerID:     worker,
		Notes:        cause.Error(),
	}
	if _, err := r.store.Append(ctx, record); err != nil {
		return fmt.Errorf("append error record for %s: %w", file.Path, err)
	}
	r.progress.observe(catalog.StatusError, file.Size)
	return nil
}

// preIndex fingerprints existing destination content so merge runs treat
// matching source files as duplicates. It writes digest-only Existing
// records and never touches placement or copying.
func (r *Runner) preIndex(ctx context.Context, logger *slog.Logger) error {
	files := make(chan scanner.File, r.workers*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			fileCtx := context.WithoutCancel(gctx)
			for file := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := r.indexExisting(fileCtx, file); err != nil {
					return err
				}
			}
			return nil
		})
	}

	rules := r.scanRules()
	summary, scanErr := scanner.Scan(gctx, r.cfg.Paths.DestinationDir, rules,
		func(file scanner.File) error {
			select {
			case files <- file:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		},
		func(scanner.File) error { return nil },
	)
	close(files)
	waitErr := g.Wait()

	logger.Info("destination pre-index complete",
		logging.Int("indexed", summary.Supported),
		logging.Int("skipped", summary.Unsupported+summary.Excluded),
	)
	if scanErr != nil && waitErr != nil && errors.Is(scanErr, waitErr) {
		return waitErr
	}
	return errors.Join(scanErr, waitErr)
}

func (r *Runner) indexExisting(ctx context.Context, file scanner.File) error {
	digest, err := r.fp.Fingerprint(ctx, file.Path)
	if err != nil {
		// Unreadable destination content cannot seed the index; the run
		// proceeds and the file stays unclaimed.
		r.logger.Warn("pre-index fingerprint failed", logging.String("path", file.Path), logging.Error(err))
		return nil
	}
	// The claim may lose to another destination file with the same bytes;
	// every supported destination file still gets its own Existing row.
	if _, err := r.store.ClaimDigest(ctx, digest); err != nil {
		return fmt.Errorf("claim digest for %s: %w", file.Path, err)
	}
	record := &catalog.Record{
		OriginalPath: file.Path,
		Digest:       digest,
		Year:         catalog.UnknownDate,
		Month:        catalog.UnknownDate,
		MediaKind:    r.kindOf(file.Name),
		Status:       catalog.StatusExisting,
		FileSize:     file.Size,
	}
	if _, err := r.store.Append(ctx, record); err != nil {
		return fmt.Errorf("append existing record for %s: %w", file.Path, err)
	}
	r.progress.observe(catalog.StatusExisting, file.Size)
	return nil
}

// finalize aggregates and, for real fresh runs, compacts. It runs even after
// cancellation so partial results are still reported.
func (r *Runner) finalize(ctx context.Context, logger *slog.Logger) (catalog.Stats, error) {
	finalCtx := context.WithoutCancel(ctx)
	stats, err := r.store.Aggregate(finalCtx)
	if err != nil {
		return catalog.Stats{}, fmt.Errorf("aggregate run stats: %w", err)
	}
	if !r.dryRun && r.mode == ModeFresh && r.cfg.Database.VacuumOnCompletion {
		if err := r.store.Compact(finalCtx); err != nil {
			logger.Warn("database compaction failed", logging.Error(err))
		}
	}
	if dropped := r.progress.dropped.Load(); dropped > 0 {
		logger.Debug("progress events dropped", logging.Int64("count", dropped))
	}
	return stats, nil
}

func (r *Runner) kindOf(name string) catalog.MediaKind {
	if r.cfg.IsVideo(filepath.Ext(name)) {
		return catalog.KindVideo
	}
	return catalog.KindPhoto
}
