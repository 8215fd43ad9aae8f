package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/keystore"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Run executes the main application logic: read the documents, describe
// them, construct the configured objects and export their key tables.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.LoadDocuments(ctx); err != nil {
		return err
	}
	if err := a.Inspect(a.outW); err != nil {
		return err
	}

	objs, err := a.Construct(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Objects constructed.", "element", a.config.Element, "count", len(objs))
	if a.config.Dump {
		dumper.Fdump(a.outW, objs...)
	}

	if a.config.KeyStorePath != "" || a.config.KeysOut != "" {
		if _, err := a.ExportKeys(ctx); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// Inspect writes a summary of each loaded document: its format and how many
// root-level elements of each name it holds.
func (a *App) Inspect(w io.Writer) error {
	for _, doc := range a.docs {
		counts := make(map[string]int)
		for _, el := range doc.Root().Elements() {
			counts[el.Name()]++
		}
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)

		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s=%d", n, counts[n])
		}
		if _, err := fmt.Fprintf(w, "%s (%s): %s\n", doc.Name(), doc.Format(), strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

// ExportKeys collects the Key/ID pairs of the configured element across all
// documents and persists them to the key store and the export file, when
// configured. The key table is named after the element.
func (a *App) ExportKeys(ctx context.Context) ([]identity.KeyRecord, error) {
	logger := ctxlog.FromContext(ctx)

	records, err := a.documentKeys()
	if err != nil {
		return nil, err
	}

	// Validate the table the same way a registry would before persisting it.
	table := identity.New[identity.Object](a.config.Element)
	if err := table.LoadKeys(records); err != nil {
		return nil, err
	}

	if a.config.KeyStorePath != "" {
		store, err := keystore.Open(a.config.KeyStorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if err := store.Save(ctx, a.config.Element, records); err != nil {
			return nil, err
		}
		logger.Info("Key table saved.", "store", a.config.KeyStorePath, "registry", a.config.Element, "count", len(records))
	}

	if a.config.KeysOut != "" {
		if err := writeKeys(a.config.KeysOut, records); err != nil {
			return nil, err
		}
		logger.Info("Key table exported.", "path", a.config.KeysOut, "count", len(records))
	}
	return records, nil
}

func keysFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported key export format %q: use .yaml, .yml or .json", ext)
	}
}

func writeKeys(path string, records []identity.KeyRecord) error {
	format, err := keysFormat(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if format == "json" {
		err = identity.WriteJSON(f, records)
	} else {
		err = identity.WriteYAML(f, records)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
