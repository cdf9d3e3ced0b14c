package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
)

// Response structures that closely match the domain structs with json tags

type PlayerResponse struct {
	Success bool    `json:"success"`
	Player  *Player `json:"player,omitempty"`
	Cause   *string `json:"cause,omitempty"`
}

type QuestsResponse struct {
	Success bool    `json:"success"`
	Quests  []Quest `json:"quests"`
	Cause   *string `json:"cause,omitempty"`
}

type CompletedQuestResponse struct {
	Success   bool    `json:"success"`
	Completed Quest   `json:"completed"`
	Player    *Player `json:"player"`
	Quests    []Quest `json:"quests"`
}

type HistoryResponse struct {
	Success bool     `json:"success"`
	History []Player `json:"history"`
}

type Player struct {
	QueriedAt time.Time `json:"queriedAt"`
	UUID      string    `json:"uuid"`

	Class string `json:"class,omitempty"`

	Level          int            `json:"level"`
	Experience     int            `json:"experience"`
	ExpToNextLevel int            `json:"expToNextLevel"`
	Attributes     map[string]int `json:"attributes"`

	Quests []Quest `json:"quests,omitempty"`
}

type Quest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ExpReward   int            `json:"expReward"`
	StatRewards map[string]int `json:"statRewards"`
}

func domainQuestToQuest(quest domain.Quest) Quest {
	statRewards := quest.StatRewards
	if statRewards == nil {
		statRewards = map[string]int{}
	}

	return Quest{
		Title:       quest.Title,
		Description: quest.Description,
		ExpReward:   quest.ExpReward,
		StatRewards: statRewards,
	}
}

func domainQuestsToQuests(quests []domain.Quest) []Quest {
	result := make([]Quest, 0, len(quests))
	for _, quest := range quests {
		result = append(result, domainQuestToQuest(quest))
	}
	return result
}

func domainPlayerToPlayer(player *domain.PlayerStats) *Player {
	if player == nil {
		return nil
	}

	attributes := make(map[string]int, len(player.Attributes))
	for attribute, value := range player.Attributes {
		attributes[string(attribute)] = value
	}

	return &Player{
		QueriedAt:      player.QueriedAt,
		UUID:           player.UUID,
		Class:          string(player.Class),
		Level:          player.Level,
		Experience:     player.Experience,
		ExpToNextLevel: domain.ExpToNextLevel(player.Level),
		Attributes:     attributes,
	}
}

func PlayerToResponseData(player *domain.PlayerStats, ledger *domain.QuestLedger) ([]byte, error) {
	responsePlayer := domainPlayerToPlayer(player)
	if responsePlayer != nil && ledger != nil {
		responsePlayer.Quests = domainQuestsToQuests(ledger.Quests())
	}

	data, err := json.Marshal(PlayerResponse{
		Success: true,
		Player:  responsePlayer,
	})
	if err != nil {
		return []byte{}, fmt.Errorf("failed to marshal player response: %w", err)
	}

	return data, nil
}

func QuestsToResponseData(ledger *domain.QuestLedger) ([]byte, error) {
	data, err := json.Marshal(QuestsResponse{
		Success: true,
		Quests:  domainQuestsToQuests(ledger.Quests()),
	})
	if err != nil {
		return []byte{}, fmt.Errorf("failed to marshal quests response: %w", err)
	}

	return data, nil
}

func CompletedQuestToResponseData(completed *app.CompletedQuest) ([]byte, error) {
	data, err := json.Marshal(CompletedQuestResponse{
		Success:   true,
		Completed: domainQuestToQuest(completed.Quest),
		Player:    domainPlayerToPlayer(completed.Player),
		Quests:    domainQuestsToQuests(completed.Ledger.Quests()),
	})
	if err != nil {
		return []byte{}, fmt.Errorf("failed to marshal completed quest response: %w", err)
	}

	return data, nil
}

func HistoryToResponseData(history []domain.PlayerStats) ([]byte, error) {
	responseHistory := make([]Player, 0, len(history))
	for _, player := range history {
		responseHistory = append(responseHistory, *domainPlayerToPlayer(&player))
	}

	data, err := json.Marshal(HistoryResponse{
		Success: true,
		History: responseHistory,
	})
	if err != nil {
		return []byte{}, fmt.Errorf("failed to marshal history response: %w", err)
	}

	return data, nil
}

func ErrorResponseData(cause string) ([]byte, error) {
	data, err := json.Marshal(PlayerResponse{
		Success: false,
		Cause:   &cause,
	})
	if err != nil {
		return []byte{}, fmt.Errorf("failed to marshal error response: %w", err)
	}

	return data, nil
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, cause string) int {
	statusCode := http.StatusBadRequest

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorData, err := ErrorResponseData(cause)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to marshal error response", "error", err)
		w.Write([]byte(`{"success":false,"cause":"Bad request"}`))
		return statusCode
	}

	w.Write(errorData)
	return statusCode
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) int {
	w.Header().Set("Content-Type", "application/json")

	// Unknown error: default to 500
	statusCode := http.StatusInternalServerError
	cause := "Internal server error"

	switch {
	case errors.Is(responseError, domain.ErrUnknownClass):
		statusCode = http.StatusBadRequest
		cause = "Unknown class"
	case errors.Is(responseError, domain.ErrQuestOutOfRange):
		statusCode = http.StatusBadRequest
		cause = "Quest index out of range"
	case errors.Is(responseError, domain.ErrInvalidExperience):
		statusCode = http.StatusBadRequest
		cause = "Invalid experience reward"
	case errors.Is(responseError, domain.ErrTemporarilyUnavailable):
		statusCode = http.StatusBadGateway
		cause = "Service temporarily unavailable"
	}

	errorData, err := ErrorResponseData(cause)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to marshal error response", "error", err)
		reporting.Report(ctx, fmt.Errorf("failed to marshal error response: %w", err), map[string]string{
			"responseError": responseError.Error(),
		})
		w.WriteHeader(statusCode)
		w.Write([]byte(`{"success":false,"cause":"Internal server error"}`))
		return statusCode
	}

	w.WriteHeader(statusCode)
	w.Write(errorData)

	return statusCode
}
