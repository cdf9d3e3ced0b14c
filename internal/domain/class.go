package domain

import (
	"fmt"
	"strings"
)

type Class string

const (
	ClassFighter  Class = "fighter"
	ClassMage     Class = "mage"
	ClassAssassin Class = "assassin"
	ClassRanger   Class = "ranger"
	ClassHealer   Class = "healer"
	ClassTanker   Class = "tanker"
)

func AllClasses() []Class {
	return []Class{
		ClassFighter,
		ClassMage,
		ClassAssassin,
		ClassRanger,
		ClassHealer,
		ClassTanker,
	}
}

func ClassFromString(raw string) (Class, error) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	for _, class := range AllClasses() {
		if lowered == string(class) {
			return class, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownClass, raw)
}
