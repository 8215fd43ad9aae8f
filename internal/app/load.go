package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/fsutil"
)

// LoadDocuments parses every configured document. Directories are searched
// recursively for files with a known document extension.
func (a *App) LoadDocuments(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var forced doctree.Format
	if a.config.Format != "" {
		f, err := doctree.ParseFormat(a.config.Format)
		if err != nil {
			return err
		}
		forced = f
	}

	var docs []*doctree.Document
	for _, root := range a.config.Paths {
		files, err := fsutil.FindFilesByExtension(root, doctree.Extensions...)
		if err != nil {
			return fmt.Errorf("failed to search %s: %w", root, err)
		}
		if len(files) == 0 {
			logger.Warn("No documents found.", "path", root)
		}
		for _, path := range files {
			doc, err := parseDocument(path, forced)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			logger.Debug("Document parsed.", "path", path, "format", doc.Format(), "nodes", doc.Len())
			docs = append(docs, doc)
		}
	}

	a.docs = docs
	logger.Info("Documents loaded.", "count", len(docs))
	return nil
}

func parseDocument(path string, forced doctree.Format) (*doctree.Document, error) {
	if forced == doctree.FormatUnknown {
		return doctree.ParseFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return doctree.Parse(f, forced, path)
}
