package app

import (
	"github.com/specialistvlad/definer/internal/registry"
	"github.com/specialistvlad/definer/modules/shapes"
)

// coreModules is the definitive list of all modules that are compiled into
// the binary.
var coreModules = []registry.Module{
	&shapes.Module{},
}
