package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the settings for the local disk store.
type Config struct {
	// BaseDir is the directory holding all stored objects.
	BaseDir string
	// BaseURL is the public URL prefix objects are addressed under.
	BaseURL string
}

// Store is a content store on the local filesystem. Objects are addressed
// by the URL returned from Put.
type Store struct {
	baseDir string
	baseURL string
	logger  zerolog.Logger
}

// New prepares the base directory and returns a ready store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "uploads"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "/uploads"
	}

	absolute, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base dir: %w", err)
	}

	return &Store{
		baseDir: absolute,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger.With().Str("component", "filestore").Logger(),
	}, nil
}

// Put stores the reader's content under the given scope and returns the
// object URL. The stored name is prefixed with a random identifier so a
// re-upload of the same filename never overwrites the previous object.
func (s *Store) Put(ctx context.Context, scope, filename string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.baseDir, sanitizeSegment(scope))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scope dir: %w", err)
	}

	name := uuid.NewString() + "_" + sanitizeFilename(filename)
	target := filepath.Join(dir, name)
	if !strings.HasPrefix(target, s.baseDir) {
		return "", fmt.Errorf("invalid object path")
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	objectURL := s.baseURL + "/" + sanitizeSegment(scope) + "/" + url.PathEscape(name)
	s.logger.Debug().Str("url", objectURL).Msg("object stored")

	return objectURL, nil
}

// Get reads back the full content of a previously stored object.
func (s *Store) Get(ctx context.Context, objectURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.resolve(objectURL)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(target)
}

// Delete removes a stored object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, objectURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(objectURL)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (s *Store) resolve(objectURL string) (string, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(objectURL, prefix) {
		return "", fmt.Errorf("url %q is outside the store", objectURL)
	}

	relative, err := url.PathUnescape(strings.TrimPrefix(objectURL, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed object url: %w", err)
	}

	target := filepath.Join(s.baseDir, filepath.FromSlash(relative))
	if !strings.HasPrefix(target, s.baseDir) {
		return "", fmt.Errorf("url %q escapes the store", objectURL)
	}

	return target, nil
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	segment = strings.ReplaceAll(segment, "..", "")
	segment = strings.Trim(segment, "/\\")
	if segment == "" {
		segment = "misc"
	}
	return segment
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("unnamed-%d", time.Now().Unix())
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
