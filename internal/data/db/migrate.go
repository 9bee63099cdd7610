package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("running automigrate")
	return AutoMigrateAll(s.db)
}
