package camper

import (
	"github.com/office562/campbaraisa-sub000/internal/camper/service"
	"go.uber.org/fx"
)

var Module = fx.Module("camper.service",
	fx.Provide(service.NewService),
)
