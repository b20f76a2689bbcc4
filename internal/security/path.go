// Package security provides input validation for side-effecting operations.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path validates document paths against the project root.
// Used to prevent path traversal attacks (CWE-22): tool calls address
// documents by relative path, and every resolved path must stay inside the
// configured root, including after symlink resolution.
type Path struct {
	root string
}

// NewPath creates a path validator confined to root.
func NewPath(root string) (*Path, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root %q: %w", root, err)
	}
	// Resolve the root itself so validation survives a symlinked root
	// (common with macOS temp directories).
	if real, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = real
	}
	return &Path{root: absRoot}, nil
}

// Root returns the absolute project root.
func (p *Path) Root() string {
	return p.root
}

// Validate resolves a relative document path and ensures it stays inside the
// project root. Returns the safe absolute path.
func (p *Path) Validate(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("absolute paths are not allowed: %q", relPath)
	}

	absPath := filepath.Join(p.root, filepath.FromSlash(relPath))
	if !p.inRoot(absPath) {
		return "", fmt.Errorf("path %q escapes the project root", relPath)
	}

	// Resolve symbolic links so a link inside the root cannot point outside it.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nonexistent targets are reported by the caller as NotFound;
			// the path itself is safe.
			return absPath, nil
		}
		return "", fmt.Errorf("resolving %q: %w", relPath, err)
	}
	if !p.inRoot(realPath) {
		return "", fmt.Errorf("path %q resolves outside the project root", relPath)
	}

	return realPath, nil
}

// inRoot reports whether abs is the root or a descendant of it.
func (p *Path) inRoot(abs string) bool {
	if abs == p.root {
		return true
	}
	return strings.HasPrefix(abs, p.root+string(filepath.Separator))
}
