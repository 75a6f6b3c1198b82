package fee

import (
	"github.com/office562/campbaraisa-sub000/internal/fee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fee.service",
	fx.Provide(service.NewService),
)
