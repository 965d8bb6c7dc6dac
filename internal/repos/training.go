package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/types"
)

type TrainingRepo interface {
	// GetByAgent returns "" when the agent has no override.
	GetByAgent(ctx context.Context, tx *gorm.DB, agentID types.AgentID) (string, error)
	Upsert(ctx context.Context, tx *gorm.DB, agentID types.AgentID, content string) error
}

type trainingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingRepo(db *gorm.DB, baseLog *logger.Logger) TrainingRepo {
	return &trainingRepo{db: db, log: baseLog.With("repo", "TrainingRepo")}
}

func (tr *trainingRepo) GetByAgent(ctx context.Context, tx *gorm.DB, agentID types.AgentID) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var row types.AgentTraining
	err := transaction.WithContext(ctx).
		Where("agent_id = ?", string(agentID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(row.Content), nil
}

func (tr *trainingRepo) Upsert(ctx context.Context, tx *gorm.DB, agentID types.AgentID, content string) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	row := &types.AgentTraining{AgentID: string(agentID), Content: content, UpdatedAt: time.Now().UTC()}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(row).Error
}
