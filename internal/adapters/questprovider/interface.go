package questprovider

import (
	"context"

	"github.com/zed38662/Solo-leveling/internal/domain"
)

type QuestProvider interface {
	// Generates a fresh batch of quests tailored to the player's class and
	// attributes.
	//
	// Raises domain.ErrTemporarilyUnavailable if the provider implementation receives an error believed to be intermittent. The call may be retried later.
	GenerateQuests(ctx context.Context, player *domain.PlayerStats) ([]domain.Quest, error)
}
