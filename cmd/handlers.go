package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pharmassist/pharmassist/internal/agent"
	"github.com/pharmassist/pharmassist/internal/auth"
	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/language"
	"github.com/pharmassist/pharmassist/internal/llm"
	"github.com/pharmassist/pharmassist/internal/sse"
	"github.com/pharmassist/pharmassist/internal/store"
	"github.com/pharmassist/pharmassist/internal/tools"
)

func (rt *runtime) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", rt.handleChat)
	mux.HandleFunc("GET /chat/tools", rt.handleTools)
	mux.HandleFunc("POST /chat/function-call", rt.handleFunctionCall)
	mux.HandleFunc("POST /auth/login", rt.handleLogin)
	mux.HandleFunc("GET /auth/users/{user_id}/stats", rt.handleUserStats)
	mux.HandleFunc("GET /auth/demo-users", rt.handleDemoUsers)
	mux.HandleFunc("GET /healthz", rt.handleHealthz)
	return mux
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage `json:"messages"`
	Language       string        `json:"language"`
	ConversationID string        `json:"conversation_id"`
}

func (rt *runtime) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	userID := r.Header.Get("X-User-Id")
	if token := bearerToken(r); token != "" {
		identity, err := rt.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		userID = identity.UserID
	}

	lastUser := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}
	lang := language.Resolve(req.Language, acceptLanguage(r), lastUser, i18n.Supported)

	conversationID := req.ConversationID
	if userID != "" && conversationID == "" {
		id, err := rt.store.CreateConversation(r.Context(), userID, lang)
		if err != nil {
			rt.log.Warn("conversation tracking disabled for request", "user", userID, "err", err)
		} else {
			conversationID = id
		}
	}
	if userID != "" && conversationID != "" && req.Messages[len(req.Messages)-1].Role == "user" {
		last := req.Messages[len(req.Messages)-1]
		if err := rt.store.AddMessage(r.Context(), conversationID, "user", last.Content, "", 0); err != nil {
			rt.log.Warn("persist user message", "err", err)
		}
	}

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.SystemText(rt.prompts.SystemPrompt(lang)))
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	engine := agent.NewEngine(rt.provider, rt.registry, rt.executor, rt.guard, agent.Options{
		MaxTurns: rt.cfg.Tools.MaxTurns,
		Logger:   rt.log,
		OnToolExecuted: func(toolName string) {
			if userID == "" {
				return
			}
			if err := rt.store.TrackToolCall(context.Background(), userID, toolName); err != nil {
				rt.log.Warn("track tool call", "tool", toolName, "err", err)
			}
		},
	})

	w.Header().Set("X-Conversation-Id", conversationID)

	stream := engine.Run(r.Context(), agent.Request{
		Temperature: rt.cfg.Backend.Temperature,
		Messages:    messages,
		Context:     tools.RequestContext{Language: lang, UserID: userID},
	})
	defer stream.Close()

	relay := sse.NewRelay(sse.NewWriter(w))
	if err := relay.Run(stream); err != nil {
		rt.log.Error("chat stream failed", "err", err)
	}

	if userID != "" && conversationID != "" && relay.Transcript() != "" {
		toolCalls := ""
		if names := relay.ToolsCalled(); len(names) > 0 {
			if data, err := json.Marshal(names); err == nil {
				toolCalls = string(data)
			}
		}
		// Rough token estimate; the stream decoder does not surface usage.
		tokens := len(relay.Transcript()) / 4
		if err := rt.store.AddMessage(context.Background(), conversationID, "assistant", relay.Transcript(), toolCalls, tokens); err != nil {
			rt.log.Warn("persist assistant message", "err", err)
		}
	}
}

func (rt *runtime) handleTools(w http.ResponseWriter, r *http.Request) {
	specs := rt.registry.Specs()
	rendered := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		rendered = append(rendered, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        spec.Name,
				"description": spec.Description,
				"parameters":  spec.Schema,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": rendered,
		"count": len(rendered),
	})
}

type functionCallRequest struct {
	FunctionName string         `json:"function_name"`
	Arguments    map[string]any `json:"arguments"`
}

// handleFunctionCall runs one tool outside the conversation loop, for
// debugging and manual testing.
func (rt *runtime) handleFunctionCall(w http.ResponseWriter, r *http.Request) {
	var req functionCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FunctionName == "" {
		writeError(w, http.StatusBadRequest, "function_name is required")
		return
	}

	argsText := "{}"
	if req.Arguments != nil {
		if data, err := json.Marshal(req.Arguments); err == nil {
			argsText = string(data)
		}
	}

	lang := "en"
	if v, ok := req.Arguments["lang"].(string); ok && i18n.Supported(v) {
		lang = v
	}
	rctx := tools.RequestContext{Language: lang, UserID: r.Header.Get("X-User-Id")}

	pending := tools.PendingCall{ID: "manual", Name: req.FunctionName, ArgsText: argsText}
	resolved, failure := rt.registry.Resolve(pending, rctx)

	var outcome tools.Outcome
	if failure != nil {
		outcome = rt.executor.FailureOutcome(pending, failure, lang)
	} else {
		outcome = rt.executor.Execute(r.Context(), resolved, rctx)
	}

	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, outcome.Content())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (rt *runtime) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := rt.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.log.Error("authenticate", "err", err)
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := rt.auth.IssueToken(auth.Identity{
		UserID:            user.ID,
		Name:              user.Name,
		PreferredLanguage: user.PreferredLanguage,
	})
	if err != nil {
		rt.log.Error("issue token", "err", err)
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":            user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"preferred_language": user.PreferredLanguage,
		"token":              token,
	})
}

func (rt *runtime) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	user, err := rt.store.UserByID(r.Context(), userID)
	if err != nil {
		rt.log.Error("load user", "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	usage, err := rt.store.UsageFor(r.Context(), userID)
	if err != nil {
		rt.log.Error("load usage", "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	usageBody := map[string]any{}
	if usage != nil {
		usageBody = map[string]any{
			"total_messages":           usage.TotalMessages,
			"total_conversations":      usage.TotalConversations,
			"total_tokens":             usage.TotalTokens,
			"total_tool_calls":         usage.TotalToolCalls,
			"resolve_medication_calls": usage.ResolveMedicationCalls,
			"get_info_calls":           usage.GetInfoCalls,
			"search_ingredient_calls":  usage.SearchIngredientCalls,
			"check_stock_calls":        usage.CheckStockCalls,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":            user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"preferred_language": user.PreferredLanguage,
		"usage":              usageBody,
	})
}

func (rt *runtime) handleDemoUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"demo_users": store.DemoAccounts(),
		"note":       "all demo users have password: demo123",
	})
}

func (rt *runtime) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// acceptLanguage extracts the primary language subtag from an
// Accept-Language header ("he-IL,he;q=0.9" yields "he").
func acceptLanguage(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(header, ",")[0])
	first = strings.Split(first, ";")[0]
	if tag, _, found := strings.Cut(first, "-"); found {
		return tag
	}
	return first
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
