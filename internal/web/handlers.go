package web

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkline-dev/valet/internal/agent"
	"github.com/mkline-dev/valet/internal/config"
	"github.com/mkline-dev/valet/internal/errors"
	"github.com/mkline-dev/valet/internal/knowledge"
)

// maxUploadBytes bounds multipart memory and upload size.
const maxUploadBytes = 32 << 20

// Handlers contains HTTP route handlers for the assistant API.
type Handlers struct {
	manager *agent.Manager
	cfg     *config.Config
	paths   agent.Paths
	version string
}

// agentView is the public shape of a profile in API responses.
type agentView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tone        string    `json:"tone"`
	Interests   []string  `json:"interests"`
	VoiceID     string    `json:"voice_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewOf(p agent.Profile) agentView {
	desc := p.Description
	if desc == "" {
		interests := "general topics"
		if len(p.Interests) > 0 {
			interests = strings.Join(p.Interests, ", ")
		}
		desc = fmt.Sprintf("A %s AI assistant interested in %s", p.Tone, interests)
	}
	return agentView{
		ID:          p.Name,
		Name:        p.Name,
		Tone:        p.Tone,
		Interests:   p.Interests,
		VoiceID:     p.VoiceID,
		Description: desc,
		CreatedAt:   p.CreatedAt,
	}
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
		"model":   h.cfg.Model,
	})
}

// HandleListAgents handles GET /agents.
func (h *Handlers) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.manager.Profiles().List()
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]agentView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, viewOf(p))
	}
	writeJSON(w, http.StatusOK, views)
}

type createAgentRequest struct {
	Name        string   `json:"name"`
	Tone        string   `json:"tone"`
	Interests   []string `json:"interests"`
	VoiceID     string   `json:"voice_id"`
	Description string   `json:"description"`
}

// HandleCreateAgent handles POST /agents.
func (h *Handlers) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	created, err := h.manager.Profiles().Create(agent.Profile{
		Name:        req.Name,
		Tone:        req.Tone,
		Interests:   req.Interests,
		VoiceID:     req.VoiceID,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(created))
}

// HandleGetAgent handles GET /agents/{id}.
func (h *Handlers) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	p, err := h.manager.Profiles().Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

// HandleUpdateAgent handles PATCH /agents/{id}.
func (h *Handlers) HandleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	var upd agent.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	name := r.PathValue("id")
	updated, err := h.manager.Profiles().Update(name, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	// A cached session keeps the old persona; drop it so the next chat
	// rebuilds with the updated profile.
	h.manager.Evict(name)
	writeJSON(w, http.StatusOK, viewOf(updated))
}

// HandleDeleteAgent handles DELETE /agents/{id}.
func (h *Handlers) HandleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("id")
	if err := h.manager.Profiles().Delete(name); err != nil {
		writeError(w, err)
		return
	}
	h.manager.Evict(name)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Agent %s deleted successfully", name),
	})
}

// HandleKnowledgeStats handles GET /agents/{id}/knowledge.
func (h *Handlers) HandleKnowledgeStats(w http.ResponseWriter, r *http.Request) {
	sess, err := h.manager.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Stats())
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	ToolUsed       string `json:"tool_used,omitempty"`
}

// HandleChat handles POST /chat/{agentId}.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, errors.NewInvalidRequest("message is required"))
		return
	}

	agentID := r.PathValue("agentId")
	sess, err := h.manager.Session(r.Context(), agentID)
	if err != nil {
		writeError(w, err)
		return
	}

	reply := sess.ProcessMessage(r.Context(), req.Message, req.ConversationID)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:       reply.Response,
		ConversationID: reply.ConversationID,
		AgentID:        agentID,
		ToolUsed:       reply.ToolUsed,
	})
}

// HandleUpload handles POST /upload. The file always lands in the shared
// uploads area; with an agent_id it is also copied into that agent's scope
// and the agent's knowledge is reloaded synchronously before responding, so
// the next chat sees the new content.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.NewInvalidRequest("file field is required"))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		writeError(w, errors.NewInvalidRequest("invalid filename"))
		return
	}
	if !knowledge.SupportedFile(filename) {
		writeError(w, errors.NewUnsupportedFile(filename))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, errors.NewInternal(err))
		return
	}

	sharedDir := filepath.Join(h.paths.SharedRoot(), "uploads")
	if err := saveUpload(filepath.Join(sharedDir, filename), content); err != nil {
		writeError(w, errors.NewInternal(err))
		return
	}

	agentID := r.FormValue("agent_id")
	if agentID != "" {
		if _, err := h.manager.Profiles().Get(agentID); err != nil {
			writeError(w, err)
			return
		}
		userDir := filepath.Join(h.paths.UserRoot(agentID), "uploads")
		if err := saveUpload(filepath.Join(userDir, filename), content); err != nil {
			writeError(w, errors.NewInternal(err))
			return
		}
		if err := h.manager.Reload(r.Context(), agentID); err != nil {
			log.Printf("web: knowledge reload after upload for %s: %v", agentID, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("File %s uploaded successfully", filename),
		"filename": filename,
		"size":     len(content),
		"agent_id": agentID,
	})
}

func saveUpload(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encoding response: %v", err)
	}
}

// writeError serializes an AssistantError with its HTTP status; anything
// else becomes an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var ae *errors.AssistantError
	if !goerrors.As(err, &ae) {
		ae = errors.NewInternal(err)
	}
	writeJSON(w, ae.Status, map[string]any{"error": ae})
}
