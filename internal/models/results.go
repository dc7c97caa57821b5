// ABOUTME: Result shapes returned across the tool boundary
// ABOUTME: Search results, CRUD outcomes, store statistics, tool catalog entries
package models

// SearchResult pairs an entry with its similarity score in [0,1].
type SearchResult struct {
	Entry           *KnowledgeEntry `json:"entry"`
	SimilarityScore float64         `json:"similarity_score"`
}

// EntryResult is the outcome of a CRUD operation. Failures carry a message
// instead of an error so nothing throws across the tool boundary.
type EntryResult struct {
	Success bool            `json:"success"`
	EntryID string          `json:"entry_id,omitempty"`
	Message string          `json:"message,omitempty"`
	Entry   *KnowledgeEntry `json:"entry,omitempty"`
}

// TagCount is one entry of the top-tags ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// StoreStats is the aggregate view over the whole collection.
type StoreStats struct {
	TotalEntries    int            `json:"total_entries"`
	EntriesByStatus map[string]int `json:"entries_by_status"`
	EntriesByType   map[string]int `json:"entries_by_type"`
	AvgQualityScore float64        `json:"avg_quality_score"`
	TopTags         []TagCount     `json:"top_tags"`
}

// ToolSummary is the compact catalog listing returned by discover_tools.
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ToolSpec is the full specification for a single tool.
type ToolSpec struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Parameters  map[string]interface{}   `json:"parameters"`
	Examples    []map[string]interface{} `json:"examples"`
}
