package playerrepository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/database"
	"github.com/zed38662/Solo-leveling/internal/config"
	"github.com/zed38662/Solo-leveling/internal/domain"
)

type StubPlayerRepository struct{}

func (p *StubPlayerRepository) StorePlayer(ctx context.Context, player *domain.PlayerStats) error {
	return nil
}

func (p *StubPlayerRepository) GetPlayer(ctx context.Context, playerUUID string) (*domain.PlayerStats, error) {
	return nil, fmt.Errorf("%w: stub repository stores nothing", domain.ErrPlayerNotFound)
}

func (p *StubPlayerRepository) GetHistory(ctx context.Context, playerUUID string, start, end time.Time, limit int) ([]domain.PlayerStats, error) {
	return []domain.PlayerStats{}, nil
}

func (p *StubPlayerRepository) StoreQuests(ctx context.Context, playerUUID string, ledger *domain.QuestLedger) error {
	return nil
}

func (p *StubPlayerRepository) GetQuests(ctx context.Context, playerUUID string) (*domain.QuestLedger, error) {
	return domain.NewQuestLedger(nil), nil
}

func NewStubPlayerRepository() *StubPlayerRepository {
	return &StubPlayerRepository{}
}

func NewPostgresPlayerRepositoryOrMock(ctx context.Context, conf config.Config, logger *slog.Logger) (PlayerRepository, error) {
	schemaName := database.GetSchemaName(!conf.IsProduction())

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(conf)

	if err == nil {
		err := database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewPostgresPlayerRepository(db, schemaName), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("Failed to connect to database. Falling back to stub repository.", "error", err.Error())
		return NewStubPlayerRepository(), nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
