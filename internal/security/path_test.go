package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "doc.md"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := NewPath(root)
	if err != nil {
		t.Fatalf("NewPath() error = %v", err)
	}

	t.Run("valid relative path", func(t *testing.T) {
		got, err := p.Validate("doc.md")
		if err != nil {
			t.Fatalf("Validate(doc.md) error = %v", err)
		}
		if filepath.Base(got) != "doc.md" {
			t.Errorf("Validate(doc.md) = %q", got)
		}
		if !strings.HasPrefix(got, p.Root()) {
			t.Errorf("Validate(doc.md) = %q, not under root %q", got, p.Root())
		}
	})

	t.Run("nonexistent path is allowed", func(t *testing.T) {
		// Existence is the caller's concern; the validator only judges shape.
		if _, err := p.Validate("alpha/new.md"); err != nil {
			t.Errorf("Validate(alpha/new.md) error = %v", err)
		}
	})

	t.Run("traversal rejected", func(t *testing.T) {
		if _, err := p.Validate("../outside.md"); err == nil {
			t.Error("Validate(../outside.md) succeeded, want error")
		}
		if _, err := p.Validate("alpha/../../outside.md"); err == nil {
			t.Error("Validate(alpha/../../outside.md) succeeded, want error")
		}
	})

	t.Run("absolute path rejected", func(t *testing.T) {
		if _, err := p.Validate(filepath.Join(root, "doc.md")); err == nil {
			t.Error("Validate(absolute) succeeded, want error")
		}
	})

	t.Run("empty path rejected", func(t *testing.T) {
		if _, err := p.Validate(""); err == nil {
			t.Error("Validate(\"\") succeeded, want error")
		}
	})
}

func TestValidateSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "target.md"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(root, "link.md")
	if err := os.Symlink(filepath.Join(outside, "target.md"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	p, err := NewPath(root)
	if err != nil {
		t.Fatalf("NewPath() error = %v", err)
	}

	if _, err := p.Validate("link.md"); err == nil {
		t.Error("Validate(symlink escaping root) succeeded, want error")
	}
}
