package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
)

var ErrAINotConfigured = errors.New("openai api key is not configured")

// ChatMessage is one turn of the recommendation conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AIService answers lunch questions using the active restaurant list as
// context for a hosted chat-completion model.
type AIService interface {
	Recommend(messages []ChatMessage) (string, error)
}

type aiService struct {
	config            *config.OpenAIConfig
	restaurantService RestaurantService
	httpClient        *http.Client
}

func NewAIService(cfg *config.OpenAIConfig, restaurantService RestaurantService) AIService {
	return &aiService{
		config:            cfg,
		restaurantService: restaurantService,
		httpClient:        &http.Client{Timeout: 60 * time.Second},
	}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Recommend builds a prompt from the current active restaurants and the
// conversation so far, and returns the model's reply.
func (s *aiService) Recommend(messages []ChatMessage) (string, error) {
	if s.config.APIKey == "" {
		return "", ErrAINotConfigured
	}
	if len(messages) == 0 {
		return "", newValidationError(map[string]string{"messages": "メッセージを入力してください"})
	}

	restaurants := s.restaurantService.ListActive()
	systemPrompt := buildRecommendPrompt(restaurants)

	apiMessages := make([]openAIMessage, 0, len(messages)+1)
	apiMessages = append(apiMessages, openAIMessage{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		apiMessages = append(apiMessages, openAIMessage{Role: role, Content: m.Content})
	}

	reply, err := callChatCompletion(s.httpClient, s.config, apiMessages)
	if err != nil {
		logger.Error("Failed to call OpenAI API", err)
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	return reply, nil
}

func buildRecommendPrompt(restaurants []model.Restaurant) string {
	var prompt strings.Builder

	prompt.WriteString(
		"あなたは八丁堀エリアのランチ案内人です。" +
			"以下のレストランリストだけを根拠に、ユーザーの気分や条件に合うお店を提案してください。" +
			"リストにないお店は提案しないでください。\n\n")

	for _, r := range restaurants {
		prompt.WriteString(fmt.Sprintf("- %s（%s）", r.Name, r.PrimaryCategoryName()))
		if r.PriceMin != nil && r.PriceMax != nil {
			prompt.WriteString(fmt.Sprintf(" 価格帯: ¥%d-%d", *r.PriceMin, *r.PriceMax))
		}
		if r.Rating != nil {
			prompt.WriteString(fmt.Sprintf(" 評価: %.1f", *r.Rating))
		}
		if r.Distance != "" {
			prompt.WriteString(fmt.Sprintf(" 距離: %s", r.Distance))
		}
		if r.Description != "" {
			prompt.WriteString(fmt.Sprintf(" / %s", r.Description))
		}
		prompt.WriteString("\n")
	}

	return prompt.String()
}

// callChatCompletion posts messages to the configured chat-completion API
// and returns the first choice. Shared by the recommendation chat and the
// tabelog extraction.
func callChatCompletion(client *http.Client, cfg *config.OpenAIConfig, messages []openAIMessage) (string, error) {
	reqBody := openAIRequest{
		Model:    cfg.Model,
		Messages: messages,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices (status %d)", resp.StatusCode)
	}

	return apiResp.Choices[0].Message.Content, nil
}
