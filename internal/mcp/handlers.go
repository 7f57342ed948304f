package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkline-dev/valet/internal/agent"
	"github.com/mkline-dev/valet/internal/config"
	"github.com/mkline-dev/valet/internal/errors"
)

// Tool definitions

var chatToolDef = mcp.NewTool(
	"assistant_chat",
	mcp.WithDescription("Send a message to an agent and get its reply. Tool dispatch and knowledge retrieval happen automatically."),
	mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent name")),
	mcp.WithString("message", mcp.Required(), mcp.Description("User message text")),
	mcp.WithString("conversation_id", mcp.Description("Conversation identifier; minted when absent")),
)

var searchToolDef = mcp.NewTool(
	"knowledge_search",
	mcp.WithDescription("Search an agent's knowledge base directly and return scored chunks."),
	mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent name")),
	mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
	mcp.WithNumber("top_k", mcp.Description("Max results"), mcp.DefaultNumber(5)),
)

var listToolDef = mcp.NewTool(
	"agent_list",
	mcp.WithDescription("List all agent profiles, newest first."),
)

var createToolDef = mcp.NewTool(
	"agent_create",
	mcp.WithDescription("Create a new agent profile and provision its knowledge scope."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Agent name, unique case-insensitively")),
	mcp.WithString("tone", mcp.Description("Persona tone"), mcp.DefaultString("friendly")),
	mcp.WithString("interests", mcp.Description("Comma-separated interest list")),
	mcp.WithString("description", mcp.Description("Human-readable description")),
)

var deleteToolDef = mcp.NewTool(
	"agent_delete",
	mcp.WithDescription("Delete an agent profile. Its knowledge files and conversation log stay on disk."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Agent name")),
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	manager *agent.Manager
	cfg     *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(manager *agent.Manager, cfg *config.Config) *Handlers {
	return &Handlers{manager: manager, cfg: cfg}
}

// Request types for each tool

// ChatRequest represents the arguments for assistant_chat.
type ChatRequest struct {
	AgentID        string `json:"agent_id"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SearchRequest represents the arguments for knowledge_search.
type SearchRequest struct {
	AgentID string `json:"agent_id"`
	Query   string `json:"query"`
	TopK    int    `json:"top_k,omitempty"`
}

// CreateRequest represents the arguments for agent_create.
type CreateRequest struct {
	Name        string `json:"name"`
	Tone        string `json:"tone,omitempty"`
	Interests   string `json:"interests,omitempty"`
	Description string `json:"description,omitempty"`
}

// DeleteRequest represents the arguments for agent_delete.
type DeleteRequest struct {
	Name string `json:"name"`
}

// Handler implementations

// HandleChat handles the assistant_chat tool call.
func (h *Handlers) HandleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ChatRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Message) == "" {
		return errorResult(errors.NewInvalidRequest("message is required")), nil
	}

	sess, err := h.manager.Session(ctx, input.AgentID)
	if err != nil {
		return errorResult(err), nil
	}

	reply := sess.ProcessMessage(ctx, input.Message, input.ConversationID)
	return successResult(map[string]any{
		"response":        reply.Response,
		"conversation_id": reply.ConversationID,
		"agent_id":        input.AgentID,
		"tool_used":       reply.ToolUsed,
	})
}

// HandleSearch handles the knowledge_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}

	sess, err := h.manager.Session(ctx, input.AgentID)
	if err != nil {
		return errorResult(err), nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = h.cfg.TopK
	}
	results := sess.Search(input.Query, topK)
	return successResult(map[string]any{
		"query":   input.Query,
		"results": results,
	})
}

// HandleList handles the agent_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles, err := h.manager.Profiles().List()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"agents": profiles})
}

// HandleCreate handles the agent_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var interests []string
	for _, s := range strings.Split(input.Interests, ",") {
		if s = strings.TrimSpace(s); s != "" {
			interests = append(interests, s)
		}
	}

	created, err := h.manager.Profiles().Create(agent.Profile{
		Name:        input.Name,
		Tone:        input.Tone,
		Interests:   interests,
		Description: input.Description,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(created)
}

// HandleDelete handles the agent_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.manager.Profiles().Delete(input.Name); err != nil {
		return errorResult(err), nil
	}
	h.manager.Evict(input.Name)
	return successResult(map[string]any{"deleted": input.Name})
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.AssistantError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
