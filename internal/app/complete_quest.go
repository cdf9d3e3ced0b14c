package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

type CompletedQuest struct {
	Player *domain.PlayerStats
	Ledger *domain.QuestLedger
	Quest  domain.Quest
}

type CompleteQuest func(ctx context.Context, uuid string, index int) (*CompletedQuest, error)

// BuildCompleteQuest removes the quest at index from the player's ledger and
// applies its reward. The updated snapshot is stored before the shrunken
// ledger, so a partial failure can re-offer a rewarded quest but never lose
// progression.
func BuildCompleteQuest(
	playerCache cache.Cache[*domain.PlayerStats],
	repo playerrepository.PlayerRepository,
	nowFunc func() time.Time,
) CompleteQuest {
	return func(ctx context.Context, uuid string, index int) (*CompletedQuest, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			logging.FromContext(ctx).Error("UUID is not normalized", "uuid", uuid)
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err)
			return nil, err
		}

		player, err := repo.GetPlayer(ctx, uuid)
		if errors.Is(err, domain.ErrPlayerNotFound) {
			player = domain.NewPlayerStats(uuid, nowFunc())
		} else if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not get player: %w", err)
		}

		ledger, err := repo.GetQuests(ctx, uuid)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not get quests: %w", err)
		}

		quest, err := ledger.Complete(index)
		if err != nil {
			return nil, fmt.Errorf("failed to complete quest: %w", err)
		}

		err = player.ApplyReward(quest.Reward())
		if err != nil {
			reporting.Report(ctx, err, map[string]string{
				"uuid":  uuid,
				"index": strconv.Itoa(index),
				"quest": quest.Title,
			})
			return nil, fmt.Errorf("failed to apply reward: %w", err)
		}

		player.QueriedAt = nowFunc()

		err = repo.StorePlayer(ctx, player)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not store player: %w", err)
		}

		err = repo.StoreQuests(ctx, uuid, ledger)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not store quests: %w", err)
		}

		cache.Invalidate(playerCache, uuid)

		logging.FromContext(ctx).Info(
			"Completed quest",
			"quest", quest.Title,
			"expReward", quest.ExpReward,
			"level", player.Level,
		)

		return &CompletedQuest{
			Player: player,
			Ledger: ledger,
			Quest:  quest,
		}, nil
	}
}
