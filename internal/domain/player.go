package domain

import (
	"strings"
	"time"
)

type Attribute string

const (
	AttributeIntelligence   Attribute = "intelligence"
	AttributePhysique       Attribute = "physique"
	AttributeLogic          Attribute = "logic"
	AttributeSkills         Attribute = "skills"
	AttributeAttractiveness Attribute = "attractiveness"
	AttributeLearning       Attribute = "learning"
)

func AllAttributes() []Attribute {
	return []Attribute{
		AttributeIntelligence,
		AttributePhysique,
		AttributeLogic,
		AttributeSkills,
		AttributeAttractiveness,
		AttributeLearning,
	}
}

func attributeFromString(raw string) (Attribute, bool) {
	lowered := strings.ToLower(raw)
	for _, attribute := range AllAttributes() {
		if lowered == string(attribute) {
			return attribute, true
		}
	}
	return "", false
}

const (
	DefaultAttributeValue = 5
	InitialLevel          = 1
)

type PlayerStats struct {
	QueriedAt time.Time

	UUID string

	// Empty until the player has chosen a class
	Class Class

	Level      int
	Experience int
	Attributes map[Attribute]int
}

func NewPlayerStats(uuid string, queriedAt time.Time) *PlayerStats {
	attributes := make(map[Attribute]int, len(AllAttributes()))
	for _, attribute := range AllAttributes() {
		attributes[attribute] = DefaultAttributeValue
	}

	return &PlayerStats{
		QueriedAt:  queriedAt,
		UUID:       uuid,
		Level:      InitialLevel,
		Experience: 0,
		Attributes: attributes,
	}
}
