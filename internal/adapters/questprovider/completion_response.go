package questprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zed38662/Solo-leveling/internal/domain"
	e "github.com/zed38662/Solo-leveling/internal/errors"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
)

type completionAPIResponse struct {
	Choices []completionAPIChoice `json:"choices"`
	Error   *completionAPIError   `json:"error,omitempty"`
}

type completionAPIChoice struct {
	Message completionAPIMessage `json:"message"`
}

type completionAPIMessage struct {
	Content string `json:"content"`
}

type completionAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type questAPIQuest struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	ExpReward   *float64            `json:"expReward,omitempty"`
	StatRewards map[string]*float64 `json:"statRewards,omitempty"`
}

func checkForCompletionError(statusCode int, responseData []byte) error {
	// Only support 200 OK
	if statusCode == 200 {
		// Check for HTML response
		if len(responseData) > 0 && responseData[0] == '<' {
			return fmt.Errorf("%w: completion API returned HTML", e.APIServerError)
		}

		return nil
	}

	// Error for unknown status code
	err := fmt.Errorf("%w: completion API returned unsupported status code: %d", e.APIServerError, statusCode)

	// Errors for known status codes
	switch statusCode {
	case 401, 403:
		err = fmt.Errorf("%w: completion API rejected credentials: %d", e.APIClientError, statusCode)
	case 429:
		err = fmt.Errorf("%w: completion API ratelimit exceeded", e.RatelimitExceededError)
	case 500, 502, 503, 504, 520, 521, 522, 523, 524, 525, 526, 527, 530:
		err = fmt.Errorf("%w: completion API returned status code %d (%s)", e.APIServerError, statusCode, http.StatusText(statusCode))
	}

	return err
}

// extractQuestArray pulls the JSON array out of the model's reply, ignoring
// any prose or markdown fencing around it.
func extractQuestArray(content string) (string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no quest array in completion content")
	}
	return content[start : end+1], nil
}

func questFromAPIQuest(apiQuest questAPIQuest) domain.Quest {
	var title, description string
	if apiQuest.Title != nil {
		title = *apiQuest.Title
	}
	if apiQuest.Description != nil {
		description = *apiQuest.Description
	}

	expReward := 0
	if apiQuest.ExpReward != nil {
		// Truncate fractional rewards toward zero
		expReward = int(*apiQuest.ExpReward)
	}

	statRewards := map[string]int{}
	for name, value := range apiQuest.StatRewards {
		if value == nil {
			continue
		}
		statRewards[name] = int(*value)
	}

	return domain.Quest{
		Title:       title,
		Description: description,
		ExpReward:   expReward,
		StatRewards: statRewards,
	}
}

func ParseCompletionResponse(ctx context.Context, responseData []byte, statusCode int) ([]domain.Quest, error) {
	err := checkForCompletionError(statusCode, responseData)
	if err != nil {
		reporting.Report(
			ctx,
			err,
			map[string]string{
				"statusCode": fmt.Sprint(statusCode),
				"data":       string(responseData),
			},
		)
		logging.FromContext(ctx).Error(
			"Got response from completion API",
			"status", "error",
			"error", err.Error(),
			"statusCode", statusCode,
			"contentLength", len(responseData),
		)
		return nil, err
	}

	logging.FromContext(ctx).Info(
		"Got response from completion API",
		"status", "success",
		"statusCode", statusCode,
		"contentLength", len(responseData),
	)

	var response completionAPIResponse
	err = json.Unmarshal(responseData, &response)
	if err != nil {
		err := fmt.Errorf("%w: failed to parse completion response: %w", e.APIServerError, err)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"data":       string(responseData),
		})
		return nil, err
	}

	if response.Error != nil {
		err := fmt.Errorf("%w: completion API returned error: %s", e.APIServerError, response.Error.Message)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"errorType":  response.Error.Type,
		})
		return nil, err
	}

	if len(response.Choices) == 0 {
		err := fmt.Errorf("%w: completion response contained no choices", e.APIServerError)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"data":       string(responseData),
		})
		return nil, err
	}

	content := response.Choices[0].Message.Content
	questArray, err := extractQuestArray(content)
	if err != nil {
		err := fmt.Errorf("%w: %w", e.APIServerError, err)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"content":    content,
		})
		return nil, err
	}

	var apiQuests []questAPIQuest
	err = json.Unmarshal([]byte(questArray), &apiQuests)
	if err != nil {
		err := fmt.Errorf("%w: failed to parse quest array: %w", e.APIServerError, err)
		reporting.Report(ctx, err, map[string]string{
			"statusCode": fmt.Sprint(statusCode),
			"content":    content,
		})
		return nil, err
	}

	quests := make([]domain.Quest, 0, len(apiQuests))
	for _, apiQuest := range apiQuests {
		quests = append(quests, questFromAPIQuest(apiQuest))
	}

	return quests, nil
}
