package domain

import (
	"fmt"
	"maps"
	"slices"
)

type Quest struct {
	Title       string
	Description string
	ExpReward   int
	// Attribute name -> increment, keys as produced by the generator
	StatRewards map[string]int
}

// Reward is the payload returned when a quest is completed. The caller is
// responsible for applying it to a PlayerStats instance.
type Reward struct {
	Experience  int
	StatRewards map[string]int
}

func (q Quest) Reward() Reward {
	return Reward{
		Experience:  q.ExpReward,
		StatRewards: maps.Clone(q.StatRewards),
	}
}

// QuestLedger holds the ordered list of pending quests. A quest is either
// pending (in the ledger) or completed (removed, reward applied); it never
// re-enters the ledger.
type QuestLedger struct {
	quests []Quest
}

func NewQuestLedger(quests []Quest) *QuestLedger {
	return &QuestLedger{quests: slices.Clone(quests)}
}

func (l *QuestLedger) Quests() []Quest {
	return slices.Clone(l.quests)
}

func (l *QuestLedger) Len() int {
	return len(l.quests)
}

// Complete removes the quest at index and returns it. An out-of-range index
// leaves the ledger unmodified.
func (l *QuestLedger) Complete(index int) (Quest, error) {
	if index < 0 || index >= len(l.quests) {
		return Quest{}, fmt.Errorf("%w: index %d, length %d", ErrQuestOutOfRange, index, len(l.quests))
	}

	quest := l.quests[index]
	l.quests = slices.Delete(l.quests, index, index+1)
	return quest, nil
}
