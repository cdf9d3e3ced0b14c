package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

type ChooseClass func(ctx context.Context, uuid string, class string) (*domain.PlayerStats, error)

// BuildChooseClass sets the player's class and persists a new snapshot.
// Choosing a class again replaces the previous choice.
func BuildChooseClass(
	playerCache cache.Cache[*domain.PlayerStats],
	repo playerrepository.PlayerRepository,
	nowFunc func() time.Time,
) ChooseClass {
	return func(ctx context.Context, uuid string, class string) (*domain.PlayerStats, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			logging.FromContext(ctx).Error("UUID is not normalized", "uuid", uuid)
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err)
			return nil, err
		}

		parsedClass, err := domain.ClassFromString(class)
		if err != nil {
			return nil, fmt.Errorf("failed to parse class: %w", err)
		}

		player, err := repo.GetPlayer(ctx, uuid)
		if errors.Is(err, domain.ErrPlayerNotFound) {
			player = domain.NewPlayerStats(uuid, nowFunc())
		} else if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not get player: %w", err)
		}

		player.Class = parsedClass
		player.QueriedAt = nowFunc()

		err = repo.StorePlayer(ctx, player)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not store player: %w", err)
		}

		cache.Invalidate(playerCache, uuid)

		return player, nil
	}
}
