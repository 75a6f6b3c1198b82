// @title           Camp Baraisa Billing API
// @version         1.0
// @description     Summer camp billing, payments, and parent portal API

// @host      localhost:8080
// @BasePath  /api/v1
// @Schemes 	http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/office562/campbaraisa-sub000/internal/audit"
	"github.com/office562/campbaraisa-sub000/internal/camper"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/fee"
	"github.com/office562/campbaraisa-sub000/internal/events"
	"github.com/office562/campbaraisa-sub000/internal/invoice"
	"github.com/office562/campbaraisa-sub000/internal/migration"
	"github.com/office562/campbaraisa-sub000/internal/observability"
	"github.com/office562/campbaraisa-sub000/internal/payment"
	"github.com/office562/campbaraisa-sub000/internal/portal"
	"github.com/office562/campbaraisa-sub000/internal/reminder"
	"github.com/office562/campbaraisa-sub000/internal/seed"
	"github.com/office562/campbaraisa-sub000/internal/server"
	"github.com/office562/campbaraisa-sub000/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Provide(events.NewOutbox),
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsureDefaultFee(conn); err != nil {
				return err
			}
			return seed.EnsureDefaultAdmin(conn, cfg)
		}),
		audit.Module,
		camper.Module,
		fee.Module,
		invoice.Module,
		payment.Module,
		portal.Module,
		reminder.Module,
		server.Module,
	)
	app.Run()
}
