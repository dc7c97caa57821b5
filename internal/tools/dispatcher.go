// ABOUTME: The three meta-operations layered over the tool catalog
// ABOUTME: discover/get-spec/execute, with every failure flattened to an error value
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/apperr"
	"github.com/Claire-s-Monster/knowledge-store/internal/knowledge"
	"github.com/Claire-s-Monster/knowledge-store/internal/models"
)

// Store is what the dispatcher needs from the store adapter.
type Store interface {
	AddEntry(ctx context.Context, p knowledge.AddParams) models.EntryResult
	GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error)
	UpdateEntry(ctx context.Context, id string, updates map[string]interface{}) models.EntryResult
	DeleteEntry(ctx context.Context, id string) bool
	Search(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]models.SearchResult, error)
	FindSimilar(ctx context.Context, id string, threshold float64, limit int) ([]models.SearchResult, error)
	ListEntries(ctx context.Context, filters map[string]interface{}, limit, offset int) ([]models.KnowledgeEntry, error)
	GetStats(ctx context.Context) (models.StoreStats, error)
}

// Dispatcher routes the meta-operations to registry lookups or store calls.
// It holds no state of its own; every call is independent.
type Dispatcher struct {
	store Store
	log   *zap.Logger
}

func NewDispatcher(store Store, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, log: log}
}

// Discover lists tools whose name or description contains the pattern,
// case-insensitively. An empty pattern matches everything.
func (d *Dispatcher) Discover(pattern string) map[string]interface{} {
	pattern = strings.ToLower(pattern)

	summaries := []models.ToolSummary{}
	categorySet := map[string]struct{}{}
	for _, name := range Names() {
		spec, _ := Spec(name)
		if !strings.Contains(strings.ToLower(name), pattern) &&
			!strings.Contains(strings.ToLower(spec.Description), pattern) {
			continue
		}
		summaries = append(summaries, models.ToolSummary{
			Name:        name,
			Description: spec.Description,
			Category:    spec.Category,
		})
		categorySet[spec.Category] = struct{}{}
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return map[string]interface{}{
		"tools":       summaries,
		"total_count": len(summaries),
		"categories":  categories,
	}
}

// GetSpec returns the full specification for one tool, or an error object.
func (d *Dispatcher) GetSpec(toolName string) map[string]interface{} {
	spec, ok := Spec(toolName)
	if !ok {
		return errorResult("Unknown tool: %s", toolName)
	}
	return map[string]interface{}{
		"name":        spec.Name,
		"description": spec.Description,
		"category":    spec.Category,
		"parameters":  spec.Parameters,
		"examples":    spec.Examples,
	}
}

// Execute dispatches to the store operation matching the tool name. It never
// propagates a panic or error to its caller; everything degrades to an
// {"error": ...} result.
func (d *Dispatcher) Execute(ctx context.Context, toolName string, params map[string]interface{}) (result map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("tool execution panicked", zap.String("tool", toolName), zap.Any("panic", r))
			result = errorResult("%v", r)
		}
	}()

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d.log.Info("executing tool", zap.String("tool", toolName), zap.Strings("params", keys))

	switch toolName {
	case "add_entry":
		return d.execAdd(ctx, params)
	case "get_entry":
		return d.execGet(ctx, params)
	case "update_entry":
		return d.execUpdate(ctx, params)
	case "delete_entry":
		return d.execDelete(ctx, params)
	case "search":
		return d.execSearch(ctx, params)
	case "find_similar":
		return d.execFindSimilar(ctx, params)
	case "list_entries":
		return d.execList(ctx, params)
	case "get_stats":
		return d.execStats(ctx)
	default:
		return errorResult("Unknown tool: %s", toolName)
	}
}

func (d *Dispatcher) execAdd(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	problemPattern, err := requireString(params, "problem_pattern")
	if err != nil {
		return errorResult("%v", err)
	}
	solution, err := requireString(params, "solution")
	if err != nil {
		return errorResult("%v", err)
	}
	tags, err := optionalStringSlice(params, "tags")
	if err != nil {
		return errorResult("%v", err)
	}

	result := d.store.AddEntry(ctx, knowledge.AddParams{
		ProblemPattern: problemPattern,
		Solution:       solution,
		CodeExample:    optionalString(params, "code_example"),
		Tags:           tags,
		PatternType:    optionalString(params, "pattern_type"),
		SourceSession:  optionalString(params, "source_session"),
		SourceType:     optionalString(params, "source_type"),
	})
	return entryResultMap(result)
}

func (d *Dispatcher) execGet(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	id, err := requireString(params, "entry_id")
	if err != nil {
		return errorResult("%v", err)
	}

	entry, err := d.store.GetEntry(ctx, id)
	if err != nil {
		// Absent and unreadable both surface as a null entry; the
		// distinction lives in the logs.
		if !errors.Is(err, apperr.ErrNotFound) {
			d.log.Warn("get entry degraded to null", zap.String("entry_id", id), zap.Error(err))
		}
		return map[string]interface{}{"entry": nil}
	}
	return map[string]interface{}{"entry": entry}
}

func (d *Dispatcher) execUpdate(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	id, err := requireString(params, "entry_id")
	if err != nil {
		return errorResult("%v", err)
	}
	updates, ok := params["updates"].(map[string]interface{})
	if !ok {
		return errorResult("updates is required and must be an object")
	}
	return entryResultMap(d.store.UpdateEntry(ctx, id, updates))
}

func (d *Dispatcher) execDelete(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	id, err := requireString(params, "entry_id")
	if err != nil {
		return errorResult("%v", err)
	}
	return map[string]interface{}{"success": d.store.DeleteEntry(ctx, id)}
}

func (d *Dispatcher) execSearch(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	query, err := requireString(params, "query")
	if err != nil {
		return errorResult("%v", err)
	}
	filters, _ := params["filters"].(map[string]interface{})

	results, err := d.store.Search(ctx, query, optionalInt(params, "limit"), filters)
	if err != nil {
		d.log.Warn("search degraded to empty", zap.Error(err))
		results = []models.SearchResult{}
	}
	return map[string]interface{}{"results": results, "count": len(results)}
}

func (d *Dispatcher) execFindSimilar(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	id, err := requireString(params, "entry_id")
	if err != nil {
		return errorResult("%v", err)
	}

	threshold := -1.0
	if v, ok := params["threshold"]; ok {
		f, ok := v.(float64)
		if !ok {
			return errorResult("threshold must be a number")
		}
		threshold = f
	}

	results, err := d.store.FindSimilar(ctx, id, threshold, optionalInt(params, "limit"))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			d.log.Warn("find similar degraded to empty", zap.String("entry_id", id), zap.Error(err))
		}
		results = []models.SearchResult{}
	}
	return map[string]interface{}{"results": results, "count": len(results)}
}

func (d *Dispatcher) execList(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	filters, _ := params["filters"].(map[string]interface{})

	entries, err := d.store.ListEntries(ctx, filters, optionalInt(params, "limit"), optionalInt(params, "offset"))
	if err != nil {
		d.log.Warn("list entries degraded to empty", zap.Error(err))
		entries = []models.KnowledgeEntry{}
	}
	return map[string]interface{}{"entries": entries, "count": len(entries)}
}

func (d *Dispatcher) execStats(ctx context.Context) map[string]interface{} {
	stats, err := d.store.GetStats(ctx)
	if err != nil {
		d.log.Warn("stats degraded to zero", zap.Error(err))
	}
	return map[string]interface{}{
		"total_entries":     stats.TotalEntries,
		"entries_by_status": stats.EntriesByStatus,
		"entries_by_type":   stats.EntriesByType,
		"avg_quality_score": stats.AvgQualityScore,
		"top_tags":          stats.TopTags,
	}
}

func entryResultMap(r models.EntryResult) map[string]interface{} {
	out := map[string]interface{}{"success": r.Success}
	if r.EntryID != "" {
		out["entry_id"] = r.EntryID
	}
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.Entry != nil {
		out["entry"] = r.Entry
	}
	return out
}

func errorResult(format string, args ...interface{}) map[string]interface{} {
	return map[string]interface{}{"error": fmt.Sprintf(format, args...)}
}

func requireString(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s is required and must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func optionalInt(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func optionalStringSlice(params map[string]interface{}, key string) ([]string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch items := v.(type) {
	case []string:
		return items, nil
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must be an array of strings", key)
}
