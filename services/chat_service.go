package services

import (
	"context"
	"errors"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const chatSystemPrompt = "You are a friendly, concise website assistant."

// ModelConfig names the completion models the bridge may use. Injected from
// main so fallback behavior is testable without network probing.
type ModelConfig struct {
	Primary  string
	Fallback string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatService struct {
	client *openai.Client
	models ModelConfig
	model  string
}

func NewChatService(client *openai.Client, cfg ModelConfig) *ChatService {
	return &ChatService{client: client, models: cfg, model: cfg.Primary}
}

// Model returns the currently selected model identifier.
func (s *ChatService) Model() string { return s.model }

// PickModel probes the configured models in order and selects the first one
// the API accepts. A model-unknown signature moves on to the next candidate;
// any other probe failure is non-fatal and the candidate is selected anyway,
// deferring error handling to request time.
func (s *ChatService) PickModel(ctx context.Context) string {
	for _, m := range []string{s.models.Primary, s.models.Fallback} {
		_, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     m,
			Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: "test"}},
			MaxTokens: 1,
		})
		if err != nil && isModelNotFound(err) {
			log.Printf("model not available: %s", m)
			continue
		}
		if err != nil {
			log.Printf("non-fatal probe error for %s: %v", m, err)
		}
		s.model = m
		return m
	}
	s.model = s.models.Fallback
	return s.model
}

// Reply forwards the conversation and returns the assistant's answer. If the
// selected model is rejected mid-run and isn't already the fallback, it
// retries once on the fallback before surfacing the error.
func (s *ChatService) Reply(ctx context.Context, history []ChatMessage, message string) (string, error) {
	convo := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	convo = append(convo, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt})
	for _, m := range history {
		convo = append(convo, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	convo = append(convo, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	reply, err := s.complete(ctx, s.model, convo)
	if err != nil && s.model != s.models.Fallback && isModelNotFound(err) {
		return s.complete(ctx, s.models.Fallback, convo)
	}
	return reply, err
}

func (s *ChatService) complete(ctx context.Context, model string, convo []openai.ChatCompletionMessage) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    convo,
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// isModelNotFound matches the API's model-unknown signatures.
func isModelNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			return true
		}
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "model_not_found") || strings.Contains(msg, "does not exist")
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "model_not_found") || strings.Contains(msg, "does not exist")
}
