package domaintest

import (
	"time"

	"github.com/zed38662/Solo-leveling/internal/domain"
)

type playerBuilder struct {
	player *domain.PlayerStats
}

func (pb *playerBuilder) WithClass(class domain.Class) *playerBuilder {
	pb.player.Class = class
	return pb
}

func (pb *playerBuilder) WithLevel(level int) *playerBuilder {
	pb.player.Level = level
	return pb
}

func (pb *playerBuilder) WithExperience(exp int) *playerBuilder {
	pb.player.Experience = exp
	return pb
}

func (pb *playerBuilder) WithAttribute(attribute domain.Attribute, value int) *playerBuilder {
	pb.player.Attributes[attribute] = value
	return pb
}

func (pb *playerBuilder) Build() domain.PlayerStats {
	player := *pb.player
	attributes := make(map[domain.Attribute]int, len(pb.player.Attributes))
	for attribute, value := range pb.player.Attributes {
		attributes[attribute] = value
	}
	player.Attributes = attributes
	return player
}

func (pb *playerBuilder) BuildPtr() *domain.PlayerStats {
	// Make a copy, so further mutations to the builder don't affect the returned player
	player := pb.Build()
	return &player
}

func NewPlayerBuilder(uuid string, queriedAt time.Time) *playerBuilder {
	return &playerBuilder{
		player: domain.NewPlayerStats(uuid, queriedAt),
	}
}
