package download

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getkayan/medgas/domain"
)

func TestSaveWritesExactBytes(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte{0x50, 0x4b, 0x03, 0x04, 0x00}, 4096)
	a := &domain.DownloadArtifact{Filename: "reporte_consumos_1.xlsx", Data: data}

	path, err := NewSaver(dir).Save(a)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if path != filepath.Join(dir, "reporte_consumos_1.xlsx") || a.Path != path {
		t.Errorf("unexpected path %q (artifact %q)", path, a.Path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("saved %d bytes, want %d", len(got), len(data))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	a := &domain.DownloadArtifact{Filename: "../../etc/reporte.pdf", Data: []byte("%PDF")}

	path, err := NewSaver(dir).Save(a)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("artifact escaped the download dir: %s", path)
	}
}

func TestSaveRequiresFilename(t *testing.T) {
	if _, err := NewSaver(t.TempDir()).Save(&domain.DownloadArtifact{}); err == nil {
		t.Error("expected error")
	}
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := Filename("reporte_global", "pdf", now); got != "reporte_global_1700000000123.pdf" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestFilenameStripsPathSegments(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	for _, tc := range []struct{ prefix, ext, want string }{
		{"reporte_../../etc/passwd", "pdf", "reporte_______etc_passwd_1700000000123.pdf"},
		{"reporte_consumos", "../x/sh", "reporte_consumos_1700000000123.___x_sh"},
		{"", "", "reporte_1700000000123.bin"},
	} {
		got := Filename(tc.prefix, tc.ext, now)
		if got != tc.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tc.prefix, tc.ext, got, tc.want)
		}
		if filepath.Base(got) != got {
			t.Errorf("%q still carries a directory", got)
		}
	}
}
