package storage

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"speechproxy/internal/model"
)

// allowedExtensions is the listing filter. Files with other extensions may
// exist in the directory but are never reported.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".flac": true,
	".webm": true,
	".mp4":  true,
	".caf":  true,
	".aiff": true,
}

// Store persists uploaded audio under a single flat directory. Every write
// targets a freshly generated filename, so concurrent requests never touch
// the same path and no locking is needed.
type Store struct {
	dir     string
	enabled bool
	baseURL string
	log     *slog.Logger
}

// New creates a Store. baseURL is the public prefix for resource URLs,
// without a trailing slash.
func New(dir string, enabled bool, baseURL string, log *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		enabled: enabled,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Enabled reports whether persistence is switched on.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Persist writes data under a generated filename and returns it. When
// persistence is disabled it returns "" without touching the filesystem.
// The original upload's extension is preserved (lowercased), with .mp3 as
// the fallback when the upload has none.
func (s *Store) Persist(data []byte, originalName string) (string, error) {
	if !s.enabled {
		return "", nil
	}

	filename := time.Now().Format("20060102_150405") + "_" + shortID() + extensionFor(originalName)
	dst := filepath.Join(s.dir, filename)

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}

	s.log.Info("recording saved", "filename", filename, "size_bytes", len(data))
	return filename, nil
}

// ResolveURL builds the public URL for a stored filename. Empty in, empty out.
func (s *Store) ResolveURL(filename string) string {
	if filename == "" {
		return ""
	}
	return s.baseURL + "/audio/" + filename
}

// List returns metadata for stored recordings, newest first. Entries that
// cannot be stat'd are logged and skipped rather than failing the listing.
func (s *Store) List() ([]model.ArtifactInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	infos := make([]model.ArtifactInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			s.log.Warn("skipping unreadable entry", "filename", entry.Name(), "error", err)
			continue
		}

		infos = append(infos, model.ArtifactInfo{
			Filename: fi.Name(),
			// Recordings are write-once, so mtime doubles as creation time.
			CreatedAt:  fi.ModTime(),
			ModifiedAt: fi.ModTime(),
			SizeBytes:  fi.Size(),
			URL:        s.ResolveURL(fi.Name()),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

// Stat returns metadata for one stored recording, or nil (not an error)
// when the file does not exist or is not a regular file.
func (s *Store) Stat(filename string) (*model.ArtifactInfo, error) {
	path, err := s.Path(filename)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, nil
	}

	return &model.ArtifactInfo{
		Filename:   fi.Name(),
		CreatedAt:  fi.ModTime(),
		ModifiedAt: fi.ModTime(),
		SizeBytes:  fi.Size(),
		URL:        s.ResolveURL(fi.Name()),
	}, nil
}

// Delete removes a stored recording, best effort. Failures are logged and
// swallowed: a failed cleanup must not fail the operation that asked for it.
func (s *Store) Delete(filename string) {
	path, err := s.Path(filename)
	if err != nil {
		s.log.Warn("refusing to delete recording", "filename", filename, "error", err)
		return
	}
	if err := os.Remove(path); err != nil {
		s.log.Warn("failed to delete recording", "filename", filename, "error", err)
		return
	}
	s.log.Info("recording deleted", "filename", filename)
}

// Path returns the absolute location of a stored filename, rejecting names
// that would escape the storage directory.
func (s *Store) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid recording filename: %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

func shortID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

func extensionFor(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		return ".mp3"
	}
	return ext
}
