package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// ErrInvalidArtifactName is returned for names that are not a plain file
// name inside the output directory.
var ErrInvalidArtifactName = errors.New("invalid artifact name")

// ArtifactStore is the output directory holding generated workbooks and
// staged uploads.
type ArtifactStore struct {
	dir string
	log *zap.Logger
}

func NewArtifactStore(dir string, log *zap.Logger) *ArtifactStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArtifactStore{dir: dir, log: log}
}

// Dir is the output directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// Ensure creates the output directory.
func (s *ArtifactStore) Ensure() error {
	return os.MkdirAll(s.dir, 0o755)
}

// Path resolves a bare file name inside the output directory.
func (s *ArtifactStore) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidArtifactName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// StagingDir creates and returns the upload directory for one run.
func (s *ArtifactStore) StagingDir(runID string) (string, error) {
	if _, err := s.Path(runID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.dir, "uploads", runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// RemoveStaging deletes the upload directory of a run.
func (s *ArtifactStore) RemoveStaging(runID string) {
	if _, err := s.Path(runID); err != nil {
		return
	}
	if err := os.RemoveAll(filepath.Join(s.dir, "uploads", runID)); err != nil {
		s.log.Warn("could not remove staged uploads", zap.String("run_id", runID), zap.Error(err))
	}
}

// WriteZip streams the named artifacts into a ZIP archive on w. Names that
// are invalid or missing are skipped with a warning; the archived names
// are returned.
func (s *ArtifactStore) WriteZip(w io.Writer, names []string) ([]string, error) {
	zw := zip.NewWriter(w)
	var added []string
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		path, err := s.Path(name)
		if err != nil {
			s.log.Warn("skipping zip entry", zap.String("file", name), zap.Error(err))
			continue
		}
		if err := addFile(zw, path, name); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.log.Warn("skipping missing zip entry", zap.String("file", name))
				continue
			}
			_ = zw.Close()
			return added, err
		}
		added = append(added, name)
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("finish zip: %w", err)
	}
	return added, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	return nil
}
