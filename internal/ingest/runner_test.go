package ingest_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"mediasort/internal/capturedate"
	"mediasort/internal/catalog"
	"mediasort/internal/config"
	"mediasort/internal/fingerprint"
	"mediasort/internal/ingest"
	"mediasort/internal/logging"
	"mediasort/internal/testsupport"
)

func seedSource(t *testing.T, cfg *config.Config, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, filepath.FromSlash(rel)), []byte(contents))
	}
}

func runOnce(t *testing.T, cfg *config.Config, store *catalog.Store, mode ingest.Mode) catalog.Stats {
	t.Helper()
	runner, err := ingest.New(cfg, store, logging.NewNop(), mode,
		ingest.WithProgressWriter(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := runner.State(); got != ingest.StateDone {
		t.Fatalf("State() = %v after Run, want done", got)
	}
	return stats
}

func assertConservation(t *testing.T, stats catalog.Stats) {
	t.Helper()
	sum := stats.ProcessedFiles + stats.DuplicateFiles + stats.UnsupportedFiles + stats.ErrorFiles
	if stats.TotalFiles != sum {
		t.Fatalf("count conservation violated: total=%d, parts sum to %d (%+v)", stats.TotalFiles, sum, stats)
	}
}

// The canonical three-file scenario: a dated photo, its byte-identical twin,
// and a text file.
func TestRunFreshScenario(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{
		"IMG_20200515_120000_a.jpg": "same pixels",
		"IMG_20200515_120000_b.jpg": "same pixels",
		"c.txt":                     "notes",
	})

	stats := runOnce(t, cfg, store, ingest.ModeFresh)
	assertConservation(t, stats)
	if stats.TotalFiles != 3 || stats.ProcessedFiles != 1 || stats.DuplicateFiles != 1 || stats.UnsupportedFiles != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Yearly["2020"] == 0 {
		t.Fatalf("yearly distribution missing 2020: %+v", stats.Yearly)
	}

	copied, err := store.List(context.Background(), catalog.StatusCopied)
	if err != nil {
		t.Fatalf("List copied: %v", err)
	}
	if len(copied) != 1 {
		t.Fatalf("copied records = %d, want 1", len(copied))
	}
	wantDir := filepath.Join(cfg.Paths.DestinationDir, "PHOTO", "2020", "05")
	if copied[0].DestinationPath != wantDir {
		t.Fatalf("copied destination = %q, want %q", copied[0].DestinationPath, wantDir)
	}
	if _, err := os.Stat(filepath.Join(wantDir, copied[0].FinalName)); err != nil {
		t.Fatalf("copied file missing on disk: %v", err)
	}

	dup, err := store.List(context.Background(), catalog.StatusDuplicate)
	if err != nil {
		t.Fatalf("List duplicate: %v", err)
	}
	if len(dup) != 1 {
		t.Fatalf("duplicate records = %d, want 1", len(dup))
	}
	if !strings.Contains(dup[0].DestinationPath, "PHOTO_DUPLICATES") {
		t.Fatalf("duplicate destination = %q, want PHOTO_DUPLICATES bucket", dup[0].DestinationPath)
	}
	if _, err := os.Stat(filepath.Join(dup[0].DestinationPath, dup[0].FinalName)); err != nil {
		t.Fatalf("duplicate copy missing on disk: %v", err)
	}
	if dup[0].Digest != copied[0].Digest {
		t.Fatalf("duplicate digest %q != primary digest %q", dup[0].Digest, copied[0].Digest)
	}
}

func TestRunIdempotentRerun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{
		"IMG_20210101_000000.jpg": "aaa",
		"VID_20210202_000000.mp4": "bbb",
	})

	first := runOnce(t, cfg, store, ingest.ModeFresh)
	if first.ProcessedFiles != 2 || first.DuplicateFiles != 0 {
		t.Fatalf("first run stats = %+v", first)
	}

	second := runOnce(t, cfg, store, ingest.ModeFresh)
	assertConservation(t, second)
	if second.ProcessedFiles != 2 {
		t.Fatalf("second run processed = %d, want 2 (only the first run's copies)", second.ProcessedFiles)
	}
	if second.DuplicateFiles != 2 {
		t.Fatalf("second run duplicates = %d, want 2", second.DuplicateFiles)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenEphemeralStore(t, cfg.WorkerCount())
	seedSource(t, cfg, map[string]string{
		"IMG_20200515_120000.jpg": "payload",
		"twin.jpg":                "payload",
	})

	stats := runOnce(t, cfg, store, ingest.ModeFresh)
	assertConservation(t, stats)
	if stats.ProcessedFiles != 1 || stats.DuplicateFiles != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	simulated, err := store.List(context.Background(), catalog.StatusSimulated)
	if err != nil {
		t.Fatalf("List simulated: %v", err)
	}
	if len(simulated) != 1 {
		t.Fatalf("simulated records = %d, want 1", len(simulated))
	}

	// The destination was never created; a dry run must not create it.
	if _, err := os.Stat(cfg.Paths.DestinationDir); !os.IsNotExist(err) {
		t.Fatalf("dry run touched the destination tree: stat err = %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DatabasePath + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("dry run created the run lock file")
	}
}

func TestRunMergePreSeedsDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "PHOTO", "2019", "03", "old.jpg"), []byte("kept bytes"))
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{
		"reimport.jpg":            "kept bytes",
		"IMG_20220404_000000.jpg": "new bytes",
	})

	stats := runOnce(t, cfg, store, ingest.ModeMerge)
	assertConservation(t, stats)
	if stats.ExistingFiles != 1 {
		t.Fatalf("existing = %d, want 1 (%+v)", stats.ExistingFiles, stats)
	}
	if stats.ProcessedFiles != 1 || stats.DuplicateFiles != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	dup, err := store.List(context.Background(), catalog.StatusDuplicate)
	if err != nil {
		t.Fatalf("List duplicate: %v", err)
	}
	if len(dup) != 1 || !strings.HasSuffix(dup[0].OriginalPath, "reimport.jpg") {
		t.Fatalf("duplicate records = %+v, want the re-imported file", dup)
	}
}

func TestRunMergeIndexesEveryDestinationFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// Two byte-identical files already organized; both must be recorded,
	// even though only one can win the digest claim.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "PHOTO", "2019", "03", "a.jpg"), []byte("same bytes"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestinationDir, "PHOTO_DUPLICATES", "a__1.jpg"), []byte("same bytes"))
	store := testsupport.MustOpenStore(t, cfg)

	stats := runOnce(t, cfg, store, ingest.ModeMerge)
	if stats.ExistingFiles != 2 {
		t.Fatalf("existing = %d, want one row per destination file (%+v)", stats.ExistingFiles, stats)
	}
	existing, err := store.List(context.Background(), catalog.StatusExisting)
	if err != nil {
		t.Fatalf("List existing: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("existing records = %d, want 2", len(existing))
	}
	if existing[0].Digest != existing[1].Digest {
		t.Fatalf("digests differ for identical content: %q vs %q", existing[0].Digest, existing[1].Digest)
	}
}

func TestRunUnknownDateGoesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{"mystery.jpg": "no date anywhere"})

	stats := runOnce(t, cfg, store, ingest.ModeFresh)
	if stats.ProcessedFiles != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	copied, err := store.List(context.Background(), catalog.StatusCopied)
	if err != nil {
		t.Fatalf("List copied: %v", err)
	}
	wantDir := filepath.Join(cfg.Paths.DestinationDir, "ToReview", "PHOTO")
	if len(copied) != 1 || copied[0].DestinationPath != wantDir {
		t.Fatalf("records = %+v, want destination %q", copied, wantDir)
	}
	if copied[0].Year != catalog.UnknownDate {
		t.Fatalf("year = %q, want %q", copied[0].Year, catalog.UnknownDate)
	}
}

func TestRunExcludePatterns(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExcludePatterns("thumb_"))
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{
		"thumb_small.jpg":         "cache",
		"IMG_20210101_000000.jpg": "real",
	})

	stats := runOnce(t, cfg, store, ingest.ModeFresh)
	if stats.TotalFiles != 1 || stats.ProcessedFiles != 1 {
		t.Fatalf("stats = %+v, excluded file was recorded", stats)
	}
}

// cancelAfterFingerprint cancels the run context right after the first
// fingerprint completes, landing the cancellation between fingerprint and
// digest claim.
type cancelAfterFingerprint struct {
	inner  fingerprint.Fingerprinter
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelAfterFingerprint) Algorithm() string { return c.inner.Algorithm() }

func (c *cancelAfterFingerprint) Fingerprint(ctx context.Context, path string) (string, error) {
	digest, err := c.inner.Fingerprint(ctx, path)
	c.once.Do(c.cancel)
	return digest, err
}

// cancelDuringResolve cancels the run context from inside date resolution,
// after the digest claim but before placement and the ledger append.
type cancelDuringResolve struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelDuringResolve) Resolve(path, name string) (capturedate.Date, bool) {
	c.once.Do(c.cancel)
	return capturedate.Date{Year: "2020", Month: "05"}, true
}

func assertFileFinishedDespiteCancel(t *testing.T, store *catalog.Store, stats catalog.Stats) {
	t.Helper()
	assertConservation(t, stats)
	copied, err := store.List(context.Background(), catalog.StatusCopied)
	if err != nil {
		t.Fatalf("List copied: %v", err)
	}
	if len(copied) != 1 {
		t.Fatalf("copied records = %d, want 1; the in-flight file must finish its pipeline", len(copied))
	}
	if _, err := os.Stat(filepath.Join(copied[0].DestinationPath, copied[0].FinalName)); err != nil {
		t.Fatalf("ledger row has no file on disk: %v", err)
	}
}

func TestRunCancelBeforeClaimStillRecordsFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{"IMG_20200515_120000.jpg": "payload"})

	inner, err := fingerprint.New("sha256")
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner, err := ingest.New(cfg, store, logging.NewNop(), ingest.ModeFresh,
		ingest.WithProgressWriter(io.Discard),
		ingest.WithFingerprinter(&cancelAfterFingerprint{inner: inner, cancel: cancel}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Cancellation may surface as a run error; the taken file must still
	// land on disk with its ledger row.
	stats, _ := runner.Run(ctx)
	assertFileFinishedDespiteCancel(t, store, stats)
}

func TestRunCancelMidFileNeverLeavesUntrackedCopy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{"snap.jpg": "payload"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner, err := ingest.New(cfg, store, logging.NewNop(), ingest.ModeFresh,
		ingest.WithProgressWriter(io.Discard),
		ingest.WithDateResolver(&cancelDuringResolve{cancel: cancel}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stats, _ := runner.Run(ctx)
	assertFileFinishedDespiteCancel(t, store, stats)
}

func TestRunCancellationStillFinalizes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(2))
	store := testsupport.MustOpenStore(t, cfg)
	files := make(map[string]string, 40)
	for i := 0; i < 40; i++ {
		files["file"+string(rune('a'+i%26))+string(rune('a'+i/26))+".jpg"] = strings.Repeat("x", i+1)
	}
	seedSource(t, cfg, files)

	runner, err := ingest.New(cfg, store, logging.NewNop(), ingest.ModeFresh,
		ingest.WithProgressWriter(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, runErr := runner.Run(ctx)
	if runErr == nil {
		t.Fatal("expected cancellation error")
	}
	assertConservation(t, stats)
	if runner.State() != ingest.StateDone {
		t.Fatalf("State() = %v, want done", runner.State())
	}
}

func TestRunLockExcludesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedSource(t, cfg, map[string]string{"a.jpg": "x"})

	// Hold the lock the way a concurrent run would.
	held := flock.New(cfg.Paths.DatabasePath + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	runner, err := ingest.New(cfg, store, logging.NewNop(), ingest.ModeFresh,
		ingest.WithProgressWriter(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := runner.Run(context.Background()); !errors.Is(err, ingest.ErrRunActive) {
		t.Fatalf("Run error = %v, want ErrRunActive", err)
	}
}

func TestParseMode(t *testing.T) {
	if _, err := ingest.ParseMode("fresh"); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if _, err := ingest.ParseMode("merge"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := ingest.ParseMode("rebuild"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
