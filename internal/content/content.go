// Package content loads the project documents visible to an access scope.
//
// Documents are plain markdown files under a project root: root-level files
// plus files nested under named partition directories. Loading is always
// fresh, with no caching, so edits made by tools are visible to the very
// next model call.
package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koopa0/scribe/internal/policy"
)

// DocExtension is the only file extension treated as a project document.
const DocExtension = ".md"

// NoDocuments is the sentinel returned when the visible set is empty.
const NoDocuments = "No project documents found."

// sectionSeparator joins rendered document sections.
const sectionSeparator = "\n\n---\n\n"

// Source enumerates and loads project documents.
type Source struct {
	root       string
	partitions map[string]string // directory name -> display name
	exclude    map[string]struct{}
	logger     *slog.Logger
}

// New creates a document source rooted at root. partitions maps partition
// directory names to display names; exclude lists root-level file names that
// are never included.
func New(root string, partitions map[string]string, exclude []string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &Source{
		root:       root,
		partitions: partitions,
		exclude:    ex,
		logger:     logger,
	}
}

// PartitionNames returns the configured partition directory names, sorted.
func (s *Source) PartitionNames() []string {
	names := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadVisible renders every document visible to the scope as one labeled
// blob. An unrestricted scope sees root-level documents and every partition;
// a restricted scope sees only its partitions. A document that fails to read
// degrades to an inline placeholder rather than aborting the whole load.
func (s *Source) LoadVisible(scope policy.Scope) string {
	sections := s.sectionsFor(scope)
	if len(sections) == 0 {
		return NoDocuments
	}

	s.logger.Debug("loaded visible documents", "sections", len(sections), "scope", scope.String())
	return strings.Join(sections, sectionSeparator)
}

// CountVisible returns the number of documents an unrestricted scope sees.
// Used for the startup banner.
func (s *Source) CountVisible() int {
	return len(s.sectionsFor(policy.Unrestricted()))
}

// sectionsFor renders one section per document visible to the scope.
func (s *Source) sectionsFor(scope policy.Scope) []string {
	var sections []string

	if scope.IsUnrestricted() {
		sections = append(sections, s.loadRoot()...)
	}

	for _, dir := range s.PartitionNames() {
		if !scope.Allows(dir) {
			continue
		}
		sections = append(sections, s.loadPartition(dir, s.partitions[dir])...)
	}

	return sections
}

// loadRoot renders the root-level documents (non-recursive).
func (s *Source) loadRoot() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn("reading project root", "root", s.root, "error", err)
		return nil
	}

	var sections []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != DocExtension {
			continue
		}
		if _, skip := s.exclude[entry.Name()]; skip {
			continue
		}
		sections = append(sections, s.renderDocument(entry.Name(), ""))
	}
	return sections
}

// loadPartition renders every document under one partition directory,
// recursively.
func (s *Source) loadPartition(dir, label string) []string {
	dirPath := filepath.Join(s.root, dir)
	if _, err := os.Stat(dirPath); err != nil {
		// A configured partition directory may simply not exist yet.
		return nil
	}

	var sections []string
	walkErr := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("walking partition", "partition", dir, "error", err)
			return nil
		}
		if d.IsDir() || filepath.Ext(d.Name()) != DocExtension {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		sections = append(sections, s.renderDocument(filepath.ToSlash(rel), label))
		return nil
	})
	if walkErr != nil {
		s.logger.Warn("walking partition", "partition", dir, "error", walkErr)
	}
	return sections
}

// renderDocument renders one document as a labeled section. Read failures
// degrade to an inline placeholder.
func (s *Source) renderDocument(relPath, label string) string {
	header := "## File: " + relPath
	if label != "" {
		header += " (" + label + ")"
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath))) // #nosec G304 -- relPath comes from walking the configured root
	if err != nil {
		return fmt.Sprintf("%s\n\nError reading file: %v", header, err)
	}
	return header + "\n\n" + string(data)
}
