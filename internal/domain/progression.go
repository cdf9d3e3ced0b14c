package domain

import "fmt"

// ExpToNextLevel returns the experience required to advance past the given level.
// Strictly increasing in level, so the rollover loop in GainExperience terminates.
func ExpToNextLevel(level int) int {
	return 100 + (level-1)*50
}

// GainExperience adds the given amount of experience and converts it into
// level-ups until the remainder is below the current level's threshold.
// A single large reward may advance several levels.
func (p *PlayerStats) GainExperience(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidExperience, amount)
	}

	p.Experience += amount
	for p.Experience >= ExpToNextLevel(p.Level) {
		p.Experience -= ExpToNextLevel(p.Level)
		p.Level++
	}

	return nil
}

// IncreaseStat adds amount to the named attribute. Attribute names are matched
// case-insensitively; unrecognized names are ignored to stay tolerant of minor
// drift in generated rewards.
func (p *PlayerStats) IncreaseStat(name string, amount int) {
	attribute, ok := attributeFromString(name)
	if !ok {
		return
	}
	p.Attributes[attribute] += amount
}

// ApplyReward applies a completed quest's full reward in one step.
func (p *PlayerStats) ApplyReward(reward Reward) error {
	if err := p.GainExperience(reward.Experience); err != nil {
		return fmt.Errorf("failed to apply experience reward: %w", err)
	}
	for name, amount := range reward.StatRewards {
		p.IncreaseStat(name, amount)
	}
	return nil
}
