package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func makeRequest(httpClient *http.Client, url string, apiKey string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("Constructing request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("Making request: %w", err)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Println(err)
		return []byte{}, -1, fmt.Errorf("ReadAll: %w", err)
	}

	return data, resp.StatusCode, nil
}

func main() {
	apiKey := os.Getenv("COMPLETION_API_KEY")

	if apiKey == "" {
		log.Fatal("No completion API key provided")
	}

	url := os.Getenv("COMPLETION_API_URL")
	if url == "" {
		url = "https://api.openai.com/v1/chat/completions"
	}

	model := os.Getenv("COMPLETION_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	if len(os.Args) < 3 {
		log.Fatal("Usage: generate-quests <class> <level>")
	}

	class := os.Args[1]
	level := os.Args[2]

	prompt := fmt.Sprintf(
		"Generate three short daily quests for a level %s %s in a real-life self-improvement game. "+
			"Reply with only a JSON array of objects with keys title, description, expReward and statRewards.",
		level, class,
	)

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		log.Fatalf("Failed marshalling request body: %v", err)
	}

	httpClient := &http.Client{}

	data, statusCode, err := makeRequest(httpClient, url, apiKey, body)
	if err != nil {
		log.Fatalf("Failed making request to completion API: %v", err)
	}

	if statusCode != 200 {
		log.Printf("Completion API returned non-200 status code: %d - %s\n", statusCode, string(data))
	}

	fmt.Println(string(data))
	fmt.Println(statusCode)
}
