package payment

import (
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	"github.com/office562/campbaraisa-sub000/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(gateway.NewHMACAdapter),
	fx.Provide(service.NewService),
)
