package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

const defaultAdminPassword = "changeme"

// seed creates the initial admin role and user on an empty database so the
// instance can be logged into at all.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)

	if count != 0 {
		return
	}

	role := models.Role{
		Name:        "admin",
		Description: "built-in administrator role",
	}

	if err := db.FirstOrCreate(&role, models.Role{Name: "admin"}).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed admin role")
		return
	}

	admin := models.User{
		Username: "admin",
		Passwd:   models.HashPassword(defaultAdminPassword),
		RoleID:   role.ID,
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}

	log.Warn().Msg("seeded default admin user, change its password immediately")
}
