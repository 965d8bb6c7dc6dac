package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/repos"
)

type Repos struct {
	User     repos.UserRepo
	Training repos.TrainingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Training: repos.NewTrainingRepo(db, log),
	}
}
