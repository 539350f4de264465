package modules

import (
	"github.com/plantboard/plantboard/modules/dashboard"
	"github.com/plantboard/plantboard/pkg/application"
)

var BuiltInModules = []application.Module{
	dashboard.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
