package generation

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Materializer persists generated artifacts. Paths are slash-separated and
// relative to the materializer's root.
type Materializer interface {
	WriteArtifact(ctx context.Context, path string, content []byte) error
}

// DirMaterializer writes artifacts below a directory on disk.
// Each file is written to a temporary sibling and renamed into place, so a
// reader never sees a partially written artifact.
type DirMaterializer struct {
	root string
}

var _ Materializer = (*DirMaterializer)(nil)

// NewDirMaterializer creates the root directory if needed.
func NewDirMaterializer(root string) (*DirMaterializer, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: artifact root is required", ErrInvalidArtifactPath)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &DirMaterializer{root: abs}, nil
}

// Root returns the absolute artifact directory.
func (m *DirMaterializer) Root() string {
	return m.root
}

// WriteArtifact atomically writes content to root/path.
func (m *DirMaterializer) WriteArtifact(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanArtifactPath(p)
	if err != nil {
		return err
	}

	target := filepath.Join(m.root, filepath.FromSlash(clean))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

// MemoryMaterializer keeps artifacts in memory. Used by tests and dry runs.
type MemoryMaterializer struct {
	mu    sync.Mutex
	files map[string][]byte
}

var _ Materializer = (*MemoryMaterializer)(nil)

// NewMemoryMaterializer creates an empty in-memory materializer.
func NewMemoryMaterializer() *MemoryMaterializer {
	return &MemoryMaterializer{files: make(map[string][]byte)}
}

// WriteArtifact stores a copy of content under path.
func (m *MemoryMaterializer) WriteArtifact(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanArtifactPath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean] = append([]byte(nil), content...)
	return nil
}

// File returns the content stored under path.
func (m *MemoryMaterializer) File(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path.Clean(p)]
	return content, ok
}

// Paths returns every stored path.
func (m *MemoryMaterializer) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	return out
}

// cleanArtifactPath rejects paths that are empty, absolute or leave the root.
func cleanArtifactPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArtifactPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArtifactPath, p)
	}
	return clean, nil
}
