// ABOUTME: Static catalog of the eight knowledge store tools
// ABOUTME: Purely declarative metadata consulted by the dispatcher, no computation
package tools

import "github.com/Claire-s-Monster/knowledge-store/internal/models"

// Tool categories
const (
	CategoryCRUD      = "crud"
	CategorySearch    = "search"
	CategoryAnalytics = "analytics"
)

type toolDef struct {
	Category    string
	Description string
	Parameters  map[string]interface{}
	Examples    []map[string]interface{}
}

// toolOrder fixes catalog iteration order for deterministic listings.
var toolOrder = []string{
	"add_entry",
	"get_entry",
	"update_entry",
	"delete_entry",
	"search",
	"find_similar",
	"list_entries",
	"get_stats",
}

var registry = map[string]toolDef{
	"add_entry": {
		Category:    CategoryCRUD,
		Description: "Add a new knowledge entry to the store",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"problem_pattern": map[string]interface{}{"type": "string", "description": "What problem this solves"},
				"solution":        map[string]interface{}{"type": "string", "description": "The solution/pattern"},
				"code_example":    map[string]interface{}{"type": "string", "description": "Optional code snippet"},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Classification tags",
				},
				"pattern_type": map[string]interface{}{
					"type":    "string",
					"enum":    models.PatternTypes,
					"default": models.PatternBugfix,
				},
				"source_session": map[string]interface{}{"type": "string", "description": "Source session ID"},
				"source_type": map[string]interface{}{
					"type":    "string",
					"enum":    models.SourceTypes,
					"default": models.SourceSession,
				},
			},
			"required": []string{"problem_pattern", "solution"},
		},
		Examples: []map[string]interface{}{
			{
				"problem_pattern": "pytest fixtures not found in conftest.py",
				"solution":        "Ensure conftest.py is in the test root directory",
				"tags":            []string{"pytest", "fixtures"},
				"pattern_type":    models.PatternBugfix,
			},
		},
	},
	"get_entry": {
		Category:    CategoryCRUD,
		Description: "Retrieve a knowledge entry by ID",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entry_id": map[string]interface{}{"type": "string", "description": "Entry UUID"},
			},
			"required": []string{"entry_id"},
		},
		Examples: []map[string]interface{}{
			{"entry_id": "550e8400-e29b-41d4-a716-446655440000"},
		},
	},
	"update_entry": {
		Category:    CategoryCRUD,
		Description: "Update an existing entry (partial update)",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entry_id": map[string]interface{}{"type": "string", "description": "Entry UUID"},
				"updates": map[string]interface{}{
					"type":        "object",
					"description": "Fields to update (quality_score, status, tags, etc.)",
				},
			},
			"required": []string{"entry_id", "updates"},
		},
		Examples: []map[string]interface{}{
			{
				"entry_id": "550e8400-e29b-41d4-a716-446655440000",
				"updates":  map[string]interface{}{"quality_score": 0.9, "status": models.StatusCanonical},
			},
		},
	},
	"delete_entry": {
		Category:    CategoryCRUD,
		Description: "Delete an entry by ID (prefer archiving via update_entry)",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entry_id": map[string]interface{}{"type": "string", "description": "Entry UUID"},
			},
			"required": []string{"entry_id"},
		},
		Examples: []map[string]interface{}{
			{"entry_id": "550e8400-e29b-41d4-a716-446655440000"},
		},
	},
	"search": {
		Category:    CategorySearch,
		Description: "Semantic search for knowledge entries",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string", "description": "Search query text"},
				"limit": map[string]interface{}{"type": "integer", "default": 10, "description": "Max results"},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Metadata filters (status, tags, quality_score, etc.)",
				},
			},
			"required": []string{"query"},
		},
		Examples: []map[string]interface{}{
			{"query": "pytest async fixture", "limit": 5, "filters": map[string]interface{}{"status": models.StatusActive}},
		},
	},
	"find_similar": {
		Category:    CategorySearch,
		Description: "Find entries similar to a given entry (for deduplication)",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entry_id":  map[string]interface{}{"type": "string", "description": "Entry UUID to find similar entries for"},
				"threshold": map[string]interface{}{"type": "number", "default": 0.85, "description": "Minimum similarity score"},
				"limit":     map[string]interface{}{"type": "integer", "default": 10, "description": "Max results"},
			},
			"required": []string{"entry_id"},
		},
		Examples: []map[string]interface{}{
			{"entry_id": "550e8400-e29b-41d4-a716-446655440000", "threshold": 0.9},
		},
	},
	"list_entries": {
		Category:    CategorySearch,
		Description: "List entries with optional filtering and pagination",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filters": map[string]interface{}{"type": "object", "description": "Metadata filters"},
				"limit":   map[string]interface{}{"type": "integer", "default": 100, "description": "Max results"},
				"offset":  map[string]interface{}{"type": "integer", "default": 0, "description": "Pagination offset"},
			},
		},
		Examples: []map[string]interface{}{
			{"filters": map[string]interface{}{"status": models.StatusCanonical}, "limit": 50},
		},
	},
	"get_stats": {
		Category:    CategoryAnalytics,
		Description: "Get collection statistics",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Examples: []map[string]interface{}{{}},
	},
}

// Names returns the catalog's tool names in fixed order.
func Names() []string {
	out := make([]string, len(toolOrder))
	copy(out, toolOrder)
	return out
}

// Spec returns the full specification for a tool, or false if unknown.
func Spec(name string) (models.ToolSpec, bool) {
	def, ok := registry[name]
	if !ok {
		return models.ToolSpec{}, false
	}
	examples := def.Examples
	if examples == nil {
		examples = []map[string]interface{}{}
	}
	return models.ToolSpec{
		Name:        name,
		Description: def.Description,
		Category:    def.Category,
		Parameters:  def.Parameters,
		Examples:    examples,
	}, true
}
