package questprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zed38662/Solo-leveling/internal/config"
	"github.com/zed38662/Solo-leveling/internal/constants"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, prompt string) ([]byte, int, error)
}

type mockedCompletionAPI struct{}

func (api *mockedCompletionAPI) CreateChatCompletion(ctx context.Context, prompt string) ([]byte, int, error) {
	content := `[{"title":"Morning stretch","description":"Stretch for ten minutes after waking up.","expReward":20,"statRewards":{"physique":1}},{"title":"Read one chapter","description":"Read a chapter of a book you enjoy.","expReward":30,"statRewards":{"intelligence":1,"learning":1}}]`

	response := map[string]any{
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to marshal mocked response: %w", err)
	}
	return data, 200, nil
}

type completionAPIImpl struct {
	httpClient HttpClient
	url        string
	model      string
	apiKey     string
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (api completionAPIImpl) CreateChatCompletion(ctx context.Context, prompt string) ([]byte, int, error) {
	logger := logging.FromContext(ctx)

	body, err := json.Marshal(chatCompletionRequest{
		Model: api.model,
		Messages: []chatCompletionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		err := fmt.Errorf("failed to marshal request body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", api.url, bytes.NewReader(body))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", api.apiKey))

	start := time.Now()
	resp, err := api.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, err
	}
	logger.Info("completion request completed", "url", api.url, "model", api.model, "status", resp.StatusCode, "duration", time.Since(start).String())

	return data, resp.StatusCode, nil
}

func NewCompletionAPI(httpClient HttpClient, url, model, apiKey string) CompletionAPI {
	return completionAPIImpl{
		httpClient: httpClient,
		url:        url,
		model:      model,
		apiKey:     apiKey,
	}
}

func NewCompletionAPIOrMock(config config.Config, httpClient HttpClient) (CompletionAPI, error) {
	if config.CompletionAPIKey() != "" {
		return NewCompletionAPI(httpClient, config.CompletionAPIURL(), config.CompletionModel(), config.CompletionAPIKey()), nil
	}
	if config.IsDevelopment() {
		return &mockedCompletionAPI{}, nil
	}
	return nil, fmt.Errorf("missing completion API key in non-development environment")
}
