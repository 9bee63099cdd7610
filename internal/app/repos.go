package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type Repos struct {
	repos.Set
	Tx aggregates.TxRunner
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Set: repos.NewSet(db, log),
		Tx:  aggregates.NewGormTxRunner(db),
	}
}
