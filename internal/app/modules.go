package app

import (
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/modules/abilities"
	"github.com/specialistvlad/charsmith/modules/choice"
	"github.com/specialistvlad/charsmith/modules/features"
	"github.com/specialistvlad/charsmith/modules/grant"
	"github.com/specialistvlad/charsmith/modules/proficiency"
	"github.com/specialistvlad/charsmith/modules/spells"
	"github.com/specialistvlad/charsmith/modules/vitals"
)

// coreModules is the definitive list of all mutator kinds that are compiled
// into the charsmith binary.
var coreModules = []registry.Module{
	&abilities.Module{},
	&choice.Module{},
	&features.Module{},
	&grant.Module{},
	&proficiency.Module{},
	&spells.Module{},
	&vitals.Module{},
}
