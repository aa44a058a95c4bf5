package modules

import (
	"github.com/iota-uz/intake/modules/intake"
	"github.com/iota-uz/intake/pkg/application"
)

var (
	BuiltInModules = []application.Module{
		intake.NewModule(nil),
	}
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
