// ABOUTME: HTTP handlers for the MCP JSON-RPC endpoint and the REST conveniences
// ABOUTME: POST /mcp speaks JSON-RPC 2.0; /health and /stats are plain GET endpoints
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/knowledge"
	"github.com/Claire-s-Monster/knowledge-store/internal/tools"
)

// ServerVersion is reported by initialize and /health.
const ServerVersion = "0.1.0"

// Handler serves the HTTP transport. Each request is handled independently;
// the session table only records ids issued by initialize.
type Handler struct {
	dispatcher *tools.Dispatcher
	store      *knowledge.Store
	collection string
	log        *zap.Logger

	mu       sync.Mutex
	sessions map[string]struct{}
}

func NewHandler(dispatcher *tools.Dispatcher, store *knowledge.Store, collection string, log *zap.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		store:      store,
		collection: collection,
		log:        log,
		sessions:   map[string]struct{}{},
	}
}

// HandleMCP handles one JSON-RPC request per POST body.
func (h *Handler) HandleMCP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("mcp handler panicked", zap.Any("panic", rec))
			writeJSON(w, http.StatusInternalServerError,
				rpcFail(nil, codeInternalError, "internal error"))
		}
	}()

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rpcFail(nil, codeParseError, "Parse error"))
		return
	}

	h.log.Debug("mcp request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		h.handleInitialize(w, req)
	case "notifications/initialized":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{}))
	case "tools/list":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{"tools": metaTools()}))
	case "tools/call":
		h.handleToolsCall(r.Context(), w, req)
	case "resources/list", "resources/templates/list":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{"resources": []interface{}{}}))
	case "prompts/list":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{"prompts": []interface{}{}}))
	default:
		writeJSON(w, http.StatusBadRequest,
			rpcFail(req.ID, codeMethodNotFound, "Method not found: "+req.Method))
	}
}

func (h *Handler) handleInitialize(w http.ResponseWriter, req rpcRequest) {
	sessionID := uuid.New().String()
	h.mu.Lock()
	h.sessions[sessionID] = struct{}{}
	h.mu.Unlock()

	w.Header().Set("MCP-Session-Id", sessionID)
	w.Header().Set("MCP-Protocol-Version", MCPProtocolVersion)
	writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{
		"protocolVersion": MCPProtocolVersion,
		"capabilities":    map[string]interface{}{"tools": map[string]interface{}{"listChanged": true}},
		"serverInfo": map[string]interface{}{
			"name":    "knowledge-store",
			"version": ServerVersion,
		},
	}))
}

func (h *Handler) handleToolsCall(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var params callToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, http.StatusBadRequest, rpcFail(req.ID, codeParseError, "Parse error"))
			return
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	var result interface{}
	switch params.Name {
	case "discover_tools":
		pattern, _ := params.Arguments["pattern"].(string)
		result = h.dispatcher.Discover(pattern)
	case "get_tool_spec":
		toolName, _ := params.Arguments["tool_name"].(string)
		result = h.dispatcher.GetSpec(toolName)
	case "execute_tool":
		toolName, _ := params.Arguments["tool_name"].(string)
		toolParams, _ := params.Arguments["parameters"].(map[string]interface{})
		if toolParams == nil {
			toolParams = map[string]interface{}{}
		}
		result = h.dispatcher.Execute(ctx, toolName, toolParams)
	default:
		result = map[string]interface{}{"error": "Unknown tool: " + params.Name}
	}

	text, err := json.Marshal(result)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, rpcFail(req.ID, codeInternalError, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]interface{}{
		"content": []toolContent{{Type: "text", Text: string(text)}},
	}))
}

// HandleHealth reports server status and store connectivity.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.EntryCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "degraded",
			"store":      "error",
			"collection": h.collection,
			"version":    ServerVersion,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"store":       "connected",
		"collection":  h.collection,
		"entry_count": count,
		"version":     ServerVersion,
	})
}

// HandleStats returns the store statistics as JSON.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// metaTools describes the three meta-tools with the step-by-step guidance
// LLM clients get over the HTTP transport.
func metaTools() []toolDescriptor {
	return []toolDescriptor{
		{
			Name: "discover_tools",
			Description: "Discover knowledge store tools for storing and retrieving learned patterns. " +
				"USE WHEN: starting knowledge store work, finding available operations, " +
				"exploring CRUD/search/analytics capabilities. " +
				"[STEP 1 of 3] Call this first to see available tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pattern": map[string]interface{}{
						"type":        "string",
						"default":     "",
						"description": "Filter pattern",
					},
				},
			},
		},
		{
			Name: "get_tool_spec",
			Description: "Get full specification for a knowledge store tool including schema and examples. " +
				"USE WHEN: need parameter details for add_entry, search, find_similar, etc. " +
				"[STEP 2 of 3] Call after discover_tools to get schema before execute_tool.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tool_name": map[string]interface{}{"type": "string"},
				},
				"required": []string{"tool_name"},
			},
		},
		{
			Name: "execute_tool",
			Description: "Execute knowledge store operations: add/search/update entries, find duplicates, get stats. " +
				"USE WHEN: storing learned patterns, searching knowledge base, deduplication checks. " +
				"[STEP 3 of 3] Call after get_tool_spec with proper parameters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tool_name":  map[string]interface{}{"type": "string"},
					"parameters": map[string]interface{}{"type": "object"},
				},
				"required": []string{"tool_name", "parameters"},
			},
		},
	}
}
