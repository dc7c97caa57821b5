// ABOUTME: Tests for the stdio MCP transport's three meta-tools
// ABOUTME: Calls the tool handlers directly against a real dispatcher

package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/apperr"
	"github.com/Claire-s-Monster/knowledge-store/internal/config"
	"github.com/Claire-s-Monster/knowledge-store/internal/knowledge"
	"github.com/Claire-s-Monster/knowledge-store/internal/tools"
	"github.com/Claire-s-Monster/knowledge-store/internal/vectorstore"
)

// memBackend is a small in-memory vectorstore.Store for transport tests.
type memBackend struct {
	docs []vectorstore.Document
}

func (m *memBackend) Insert(ctx context.Context, doc vectorstore.Document) error {
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memBackend) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs[i].Metadata = metadata
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *memBackend) Delete(ctx context.Context, id string) error {
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memBackend) Get(ctx context.Context, id string) (vectorstore.Document, error) {
	for _, doc := range m.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return vectorstore.Document{}, apperr.ErrNotFound
}

func (m *memBackend) Query(ctx context.Context, text string, limit int, where map[string]string) ([]vectorstore.Result, error) {
	var results []vectorstore.Result
	for _, doc := range m.docs {
		results = append(results, vectorstore.Result{Document: doc, Similarity: 0.9})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (m *memBackend) Scan(ctx context.Context, where map[string]string, limit int) ([]vectorstore.Document, error) {
	if len(m.docs) > limit {
		return m.docs[:limit], nil
	}
	return m.docs, nil
}

func (m *memBackend) Count(ctx context.Context) (int, error) { return len(m.docs), nil }
func (m *memBackend) Close() error                           { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{DefaultSearchLimit: 10, DefaultSimilarityThreshold: 0.85}
	store := knowledge.NewStore(&memBackend{}, cfg, zap.NewNop())
	dispatcher := tools.NewDispatcher(store, zap.NewNop())
	return New(dispatcher, zap.NewNop())
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcpgo.CallToolResult
	var err error
	switch name {
	case "discover_tools":
		result, err = srv.discoverTools(ctx, req)
	case "get_tool_spec":
		result, err = srv.getToolSpec(ctx, req)
	case "execute_tool":
		result, err = srv.executeTool(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultJSON(t *testing.T, r *mcpgo.CallToolResult) map[string]interface{} {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := r.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("content has type %T", r.Content[0])
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(tc.Text), &out); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, tc.Text)
	}
	return out
}

func TestDiscoverTools(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "discover_tools", map[string]interface{}{}))
	if result["total_count"] != float64(8) {
		t.Errorf("total_count = %v, want 8", result["total_count"])
	}

	toolList, ok := result["tools"].([]interface{})
	if !ok || len(toolList) != 8 {
		t.Fatalf("tools = %v", result["tools"])
	}
	first, _ := toolList[0].(map[string]interface{})
	if first["name"] != "add_entry" {
		t.Errorf("first tool = %v, want add_entry", first["name"])
	}
}

func TestDiscoverTools_Pattern(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "discover_tools", map[string]interface{}{
		"pattern": "stats",
	}))
	if result["total_count"] != float64(1) {
		t.Errorf("total_count = %v, want 1", result["total_count"])
	}
}

func TestGetToolSpec(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "get_tool_spec", map[string]interface{}{
		"tool_name": "add_entry",
	}))
	if result["name"] != "add_entry" {
		t.Errorf("name = %v", result["name"])
	}
	if _, ok := result["parameters"]; !ok {
		t.Error("spec missing parameters")
	}
}

func TestGetToolSpec_MissingName(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_tool_spec", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error result for missing tool_name")
	}
}

func TestGetToolSpec_Unknown(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "get_tool_spec", map[string]interface{}{
		"tool_name": "bogus",
	}))
	if result["error"] != "Unknown tool: bogus" {
		t.Errorf("error = %v", result["error"])
	}
}

func TestExecuteTool_AddAndGet(t *testing.T) {
	srv := testServer(t)

	added := resultJSON(t, callTool(t, srv, "execute_tool", map[string]interface{}{
		"tool_name": "add_entry",
		"parameters": map[string]interface{}{
			"problem_pattern": "pytest import errors",
			"solution":        "fix sys.path ordering",
			"tags":            []interface{}{"pytest"},
		},
	}))
	if added["success"] != true {
		t.Fatalf("add failed: %v", added)
	}
	entryID, _ := added["entry_id"].(string)
	if entryID == "" {
		t.Fatal("missing entry_id")
	}

	got := resultJSON(t, callTool(t, srv, "execute_tool", map[string]interface{}{
		"tool_name":  "get_entry",
		"parameters": map[string]interface{}{"entry_id": entryID},
	}))
	entry, _ := got["entry"].(map[string]interface{})
	if entry == nil || entry["id"] != entryID {
		t.Errorf("entry = %v", got["entry"])
	}
}

func TestExecuteTool_GetMissingIsNull(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "execute_tool", map[string]interface{}{
		"tool_name":  "get_entry",
		"parameters": map[string]interface{}{"entry_id": "missing"},
	}))
	entry, present := result["entry"]
	if !present || entry != nil {
		t.Errorf("entry = %v, want explicit null", entry)
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	srv := testServer(t)

	result := resultJSON(t, callTool(t, srv, "execute_tool", map[string]interface{}{
		"tool_name":  "bogus",
		"parameters": map[string]interface{}{},
	}))
	if result["error"] != "Unknown tool: bogus" {
		t.Errorf("error = %v", result["error"])
	}
}

func TestExecuteTool_MissingParameters(t *testing.T) {
	srv := testServer(t)

	// A missing parameters object defaults to empty rather than failing.
	result := resultJSON(t, callTool(t, srv, "execute_tool", map[string]interface{}{
		"tool_name": "get_stats",
	}))
	if result["total_entries"] != float64(0) {
		t.Errorf("total_entries = %v, want 0", result["total_entries"])
	}
}
