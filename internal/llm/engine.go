// Package llm produces assistant utterances via a remote chat-completion
// provider.
package llm

import (
	"context"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Sampling parameters for every completion request.
const (
	maxTokens   = 500
	temperature = 0.7
)

// maxHistoryTurns bounds how much of the conversation log is fed back into
// the completion request. The on-disk log is never truncated.
const maxHistoryTurns = 5

// EngineConfig configures the completion client.
type EngineConfig struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests and compatible providers
}

// Engine builds persona-flavored prompts and calls the completion provider.
type Engine struct {
	client       *openai.Client
	model        string
	capabilities []string
}

// NewEngine creates an engine. The capability names appear in the persona
// prompt so the model knows what context it may be handed.
func NewEngine(cfg EngineConfig, capabilities []string) *Engine {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Engine{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		capabilities: capabilities,
	}
}

// Respond produces the next assistant utterance: persona system prompt, up to
// the last 5 turns oldest-first, tool context (if any) as a system message
// directly before the user message. Any provider failure degrades to a
// persona-flavored apology rather than an error.
func (e *Engine) Respond(ctx context.Context, persona Persona, history []Turn, toolContext, userMsg string) string {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildPersonaPrompt(persona, e.capabilities)},
	}

	start := max(len(history)-maxHistoryTurns, 0)
	for _, turn := range history[start:] {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.User},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Assistant},
		)
	}

	if toolContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Additional context: " + toolContext,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		log.Printf("llm: completion failed for %s: %v", persona.Name, err)
		return Apology(persona)
	}
	if len(resp.Choices) == 0 {
		log.Printf("llm: completion returned no choices for %s", persona.Name)
		return Apology(persona)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
