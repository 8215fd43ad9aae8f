package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/definer/internal/ctxlog"
)

// ValidateRegistry checks that every global alias targets a registered
// class. All problems are reported together.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	aliases := r.Aliases.Snapshot()
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := aliases[name]
		if _, ok := r.Catalog.Lookup(target); ok {
			continue
		}
		msg := fmt.Sprintf("alias '%s': target class '%s' is not registered", name, target)
		if hint := r.Catalog.Suggest(target); len(hint) > 0 {
			msg += fmt.Sprintf(" (did you mean '%s'?)", hint[0])
		}
		errs = append(errs, msg)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "classes", len(r.Catalog.Names()), "aliases", len(aliases))
	return nil
}
