package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/fileutil"
	"mediasort/internal/testsupport"
)

func TestSafeCopyCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src", "photo.jpg")
	testsupport.WriteFile(t, src, []byte("payload"))

	destDir := filepath.Join(base, "dest", "PHOTO", "2020", "05")
	final, err := fileutil.SafeCopy(src, destDir, "photo.jpg")
	if err != nil {
		t.Fatalf("SafeCopy: %v", err)
	}
	if final != filepath.Join(destDir, "photo.jpg") {
		t.Fatalf("unexpected final path: %s", final)
	}

	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestSafeCopyNeverOverwrites(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src", "photo.jpg")
	testsupport.WriteFile(t, src, []byte("new"))

	destDir := filepath.Join(base, "dest")
	existing := filepath.Join(destDir, "photo.jpg")
	testsupport.WriteFile(t, existing, []byte("original"))

	final, err := fileutil.SafeCopy(src, destDir, "photo.jpg")
	if err != nil {
		t.Fatalf("SafeCopy: %v", err)
	}
	if final != filepath.Join(destDir, "photo__1.jpg") {
		t.Fatalf("expected suffixed name, got %s", final)
	}

	kept, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("read existing: %v", err)
	}
	if string(kept) != "original" {
		t.Fatal("existing file was overwritten")
	}

	// A third copy keeps counting.
	final2, err := fileutil.SafeCopy(src, destDir, "photo.jpg")
	if err != nil {
		t.Fatalf("SafeCopy (third): %v", err)
	}
	if final2 != filepath.Join(destDir, "photo__2.jpg") {
		t.Fatalf("expected photo__2.jpg, got %s", final2)
	}
}

func TestCollisionFreeName(t *testing.T) {
	destDir := t.TempDir()
	if got := fileutil.CollisionFreeName(destDir, "clip.mp4"); got != "clip.mp4" {
		t.Fatalf("expected untouched name, got %s", got)
	}

	testsupport.WriteFile(t, filepath.Join(destDir, "clip.mp4"), []byte("x"))
	if got := fileutil.CollisionFreeName(destDir, "clip.mp4"); got != "clip__1.mp4" {
		t.Fatalf("expected clip__1.mp4, got %s", got)
	}
}
