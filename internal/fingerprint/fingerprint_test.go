package fingerprint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/fingerprint"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := fingerprint.New("crc32"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestSHA256KnownVector(t *testing.T) {
	fp, err := fingerprint.New("sha256")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeFile(t, "vec.bin", "abc")
	got, err := fp.Fingerprint(context.Background(), path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("sha256(\"abc\") = %q, want %q", got, want)
	}
}

func TestIdenticalContentsAgreeAcrossPaths(t *testing.T) {
	for _, alg := range []string{"sha256", "xxh64"} {
		fp, err := fingerprint.New(alg)
		if err != nil {
			t.Fatalf("New(%s): %v", alg, err)
		}
		a := writeFile(t, "a.jpg", "same bytes")
		b := writeFile(t, "b.jpg", "same bytes")
		c := writeFile(t, "c.jpg", "different bytes")
		ctx := context.Background()
		da, err := fp.Fingerprint(ctx, a)
		if err != nil {
			t.Fatalf("%s Fingerprint(a): %v", alg, err)
		}
		db, err := fp.Fingerprint(ctx, b)
		if err != nil {
			t.Fatalf("%s Fingerprint(b): %v", alg, err)
		}
		dc, err := fp.Fingerprint(ctx, c)
		if err != nil {
			t.Fatalf("%s Fingerprint(c): %v", alg, err)
		}
		if da != db {
			t.Fatalf("%s: identical contents produced %q and %q", alg, da, db)
		}
		if da == dc {
			t.Fatalf("%s: different contents collided on %q", alg, da)
		}
	}
}

func TestFileMissing(t *testing.T) {
	fp, err := fingerprint.New("xxh64")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := fp.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "absent.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileHonorsCancellation(t *testing.T) {
	fp, err := fingerprint.New("sha256")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, "x.jpg", "payload")
	if _, err := fp.Fingerprint(ctx, path); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
