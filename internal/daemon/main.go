// Package daemon assembles the running service: database, authentication
// and the web surface.
package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/auth"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/dsn"
	"github.com/hawkmon/hawkmon/internal/db/models"
	"github.com/hawkmon/hawkmon/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService  *web.Service
	authService *auth.Service
	db          *gorm.DB
	cfg         *config.Config
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf("%s:%d", d.cfg.Webserver.Domain, d.cfg.Webserver.Port)

	return d.webService.Start(addr)
}

// WaitShutdown blocks until the web service has shut down.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// Auth exposes the authentication service to command-line subcommands.
func (d *Daemon) Auth() *auth.Service {
	return d.authService
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserGroup{},
		&models.UserGroupMember{},
		&models.UserDirectory{},
		&models.DirectoryGroupMapping{},
		&models.DirectoryMediaMapping{},
		&models.MediaType{},
		&models.Media{},
		&models.Session{},
		&models.Token{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	authService := auth.NewService(db, &cfg.Auth, auth.NewClientFactory(), audit.ZerologSink{})

	return &Daemon{
		webService:  web.New(cfg, db, authService),
		authService: authService,
		db:          db,
		cfg:         cfg,
	}
}

func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		return gormsqlite.Open(cfg.DB.Name)
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}
