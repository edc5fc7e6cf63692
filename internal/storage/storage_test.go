package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/smbops/invoice-copilot/internal/models"
)

func TestLocal_SaveAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ref, err := l.Save(context.Background(), "abc__inv.txt", strings.NewReader("Vendor: A"), 9, "text/plain")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(ref) != dir {
		t.Fatalf("ref %q outside %q", ref, dir)
	}

	rc, err := l.Open(context.Background(), ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "Vendor: A" {
		t.Fatalf("read back %q", b)
	}

	// same key is refused rather than overwritten
	if _, err := l.Save(context.Background(), "abc__inv.txt", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatalf("expected error on duplicate key")
	}
}

func TestLocal_OpenRejectsOutsidePaths(t *testing.T) {
	l, _ := NewLocal(t.TempDir())
	for _, ref := range []string{"/etc/passwd", "../secret", filepath.Join(l.dir, "missing.pdf")} {
		if _, err := l.Open(context.Background(), ref); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) = %v, want ErrNotFound", ref, err)
		}
	}
}

func TestLocal_Delete(t *testing.T) {
	l, _ := NewLocal(t.TempDir())
	ref, err := l.Save(context.Background(), "k__a.txt", strings.NewReader("a"), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := l.Open(context.Background(), ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open after delete = %v", err)
	}
	// already gone
	if err := l.Delete(context.Background(), ref); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if err := l.Delete(context.Background(), "/etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete outside dir = %v", err)
	}
}

func TestOpenError_MissingObject(t *testing.T) {
	err := openError("2024/05/a.pdf", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("NoSuchKey = %v, want ErrNotFound", err)
	}
	err = openError("2024/05/a.pdf", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403})
	if errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "failed to open document") {
		t.Fatalf("AccessDenied = %v", err)
	}
}

func TestDatedObjectName(t *testing.T) {
	now := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := datedObjectName("uploads/", "x.pdf", now); got != "uploads/2024/03/x.pdf" {
		t.Fatalf("got %q", got)
	}
	if got := datedObjectName("", "x.pdf", now); got != "2024/03/x.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestContentTypes(t *testing.T) {
	if ContentTypeFor("A.PDF") != "application/pdf" || ContentTypeFor("a.zip") != "application/octet-stream" {
		t.Fatalf("ContentTypeFor mismatch")
	}
	if GetFileExtension("text/plain; charset=utf-8") != ".txt" || GetFileExtension("application/zip") != ".bin" {
		t.Fatalf("GetFileExtension mismatch")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), models.StorageConfig{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error")
	}
}
