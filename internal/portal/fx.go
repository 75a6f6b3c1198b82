package portal

import (
	"github.com/office562/campbaraisa-sub000/internal/cache"
	"github.com/office562/campbaraisa-sub000/internal/portal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("portal.service",
	fx.Provide(cache.NewPortalTokenCache),
	fx.Provide(service.NewService),
)
