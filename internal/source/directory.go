package source

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// DocumentExtensions are the file extensions treated as notifications
var DocumentExtensions = []string{".html", ".htm"}

// DirectoryProvider serves one notification per file in a flat directory.
// Document ids are file names.
type DirectoryProvider struct {
	root   string
	logger logger.Logger
}

// NewDirectoryProvider checks that root is a readable directory
func NewDirectoryProvider(root string) (*DirectoryProvider, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "dir", root, err)
	}
	if !info.IsDir() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "dir", root, nil).
			WithSuggestion("point --dir at a directory of .html notification files")
	}

	return &DirectoryProvider{
		root:   root,
		logger: logger.GetGlobalLogger().WithComponent("source").WithField("root", root),
	}, nil
}

// Root returns the directory being served
func (p *DirectoryProvider) Root() string {
	return p.root
}

// DocumentIDs yields matching file names in lexical order
func (p *DirectoryProvider) DocumentIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entries, err := os.ReadDir(p.root)
		if err != nil {
			yield("", errors.SourceError(errors.CodeSourceUnavailable, p.root, err))
			return
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Type().IsRegular() && isDocument(entry.Name()) {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		p.logger.WithField("documents", len(names)).Debug("Listed source directory")

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				yield("", errors.SourceError(errors.CodeSourceUnavailable, name, err))
				return
			}
			if !yield(name, nil) {
				return
			}
		}
	}
}

// Document reads the file named id
func (p *DirectoryProvider) Document(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.SourceError(errors.CodeSourceUnavailable, id, err)
	}
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." || !isDocument(id) {
		return nil, errors.SourceError(errors.CodeDocumentNotFound, id, nil)
	}

	raw, err := os.ReadFile(filepath.Join(p.root, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SourceError(errors.CodeDocumentNotFound, id, err)
		}
		return nil, errors.SourceError(errors.CodeSourceUnavailable, id, err)
	}
	return raw, nil
}

func isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range DocumentExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
