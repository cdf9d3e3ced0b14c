package app

import (
	"context"
	"fmt"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

type GetHistory = func(
	ctx context.Context,
	uuid string,
	start, end time.Time,
	limit int,
) ([]domain.PlayerStats, error)

func BuildGetHistory(repo playerrepository.PlayerRepository) GetHistory {
	return func(ctx context.Context,
		uuid string,
		start, end time.Time,
		limit int,
	) ([]domain.PlayerStats, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid":  uuid,
				"start": start.Format(time.RFC3339),
				"end":   end.Format(time.RFC3339),
			})
			return nil, err
		}

		history, err := repo.GetHistory(ctx, uuid, start, end, limit)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("failed to get history: %w", err)
		}

		return history, nil
	}
}
