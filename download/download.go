// Package download materializes report payloads on the local disk.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkayan/medgas/domain"
)

// Saver writes artifacts into Dir.
type Saver struct {
	Dir string
}

func NewSaver(dir string) *Saver {
	if dir == "" {
		dir = "."
	}
	return &Saver{Dir: dir}
}

// Filename builds "<prefix>_<unix millis>.<ext>". Anything outside
// [A-Za-z0-9_-] in prefix or ext becomes "_", so the name never carries a
// path separator or a ".." segment.
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%d.%s", safeName(prefix, "reporte"), now.UnixMilli(), safeName(ext, "bin"))
}

func safeName(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return fallback
	}
	return s
}

// Save writes a to a temporary file and renames it into place, so a partial
// download never appears under the final name. The temporary file is removed
// on every path. It returns the final path and records it on a.
func (s *Saver) Save(a *domain.DownloadArtifact) (string, error) {
	if a.Filename == "" {
		return "", fmt.Errorf("download: artifact has no filename")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, ".medgas-download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download: write %s: %w", a.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	final := filepath.Join(s.Dir, filepath.Base(a.Filename))
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", err
	}

	a.Path = final
	return final, nil
}
