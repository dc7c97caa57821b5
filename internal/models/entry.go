// ABOUTME: KnowledgeEntry model and its document+metadata serialization
// ABOUTME: The flat representation is what the vector store persists; this is its inverse too
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Pattern types for classification
const (
	PatternBugfix       = "bugfix"
	PatternBestPractice = "best_practice"
	PatternOptimization = "optimization"
	PatternSetup        = "setup"
	PatternArchitecture = "architecture"
)

// Lifecycle statuses
const (
	StatusActive     = "active"
	StatusCanonical  = "canonical"
	StatusArchived   = "archived"
	StatusSuperseded = "superseded"
)

// Provenance source types
const (
	SourceSession = "session"
	SourceDirect  = "direct"
	SourceSeeded  = "seeded"
)

// PatternTypes lists the valid pattern_type values in catalog order.
var PatternTypes = []string{
	PatternBugfix, PatternBestPractice, PatternOptimization, PatternSetup, PatternArchitecture,
}

// Statuses lists the valid lifecycle states.
var Statuses = []string{StatusActive, StatusCanonical, StatusArchived, StatusSuperseded}

// SourceTypes lists the valid provenance kinds.
var SourceTypes = []string{SourceSession, SourceDirect, SourceSeeded}

// documentSeparator joins the content fields into the embedded document.
// Content fields containing it cannot be split back unambiguously.
const documentSeparator = "\n\n"

// KnowledgeEntry is a single problem/solution pattern stored in the vector store.
type KnowledgeEntry struct {
	// Identity
	ID string `json:"id"`

	// Content (embedded for search, immutable after creation)
	ProblemPattern string `json:"problem_pattern"`
	Solution       string `json:"solution"`
	CodeExample    string `json:"code_example,omitempty"`

	// Classification
	Tags        []string `json:"tags"`
	PatternType string   `json:"pattern_type"`

	// Quality metrics (updated by curator)
	TimesApplied int     `json:"times_applied"`
	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`
	QualityScore float64 `json:"quality_score"`

	// Lifecycle
	Status       string `json:"status"`
	SupersededBy string `json:"superseded_by,omitempty"`

	// Provenance
	SourceSession string `json:"source_session,omitempty"`
	SourceType    string `json:"source_type"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastAppliedAt *time.Time `json:"last_applied_at,omitempty"`
}

// Validate checks the entry against the model constraints.
func (e KnowledgeEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.ProblemPattern, validation.Required),
		validation.Field(&e.Solution, validation.Required),
		validation.Field(&e.PatternType, validation.Required, validation.In(asAny(PatternTypes)...)),
		validation.Field(&e.Status, validation.Required, validation.In(asAny(Statuses)...)),
		validation.Field(&e.SourceType, validation.Required, validation.In(asAny(SourceTypes)...)),
		validation.Field(&e.QualityScore, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&e.Tags, validation.Each(validation.By(validateTag))),
	)
}

// validateTag rejects tags the comma-joined metadata encoding cannot represent.
func validateTag(value interface{}) error {
	tag, _ := value.(string)
	if strings.Contains(tag, ",") {
		return fmt.Errorf("tag %q must not contain a comma", tag)
	}
	return nil
}

// ToDocument combines the content fields into the text blob that gets embedded.
func (e *KnowledgeEntry) ToDocument() string {
	parts := []string{e.ProblemPattern, e.Solution}
	if e.CodeExample != "" {
		parts = append(parts, e.CodeExample)
	}
	return strings.Join(parts, documentSeparator)
}

// ToMetadata flattens every non-document field into the string-only map the
// vector store requires. Absent optionals become empty-string sentinels.
func (e *KnowledgeEntry) ToMetadata() map[string]string {
	lastApplied := ""
	if e.LastAppliedAt != nil {
		lastApplied = e.LastAppliedAt.UTC().Format(time.RFC3339Nano)
	}
	return map[string]string{
		"id":              e.ID,
		"tags":            strings.Join(e.Tags, ","),
		"pattern_type":    e.PatternType,
		"quality_score":   strconv.FormatFloat(e.QualityScore, 'f', -1, 64),
		"times_applied":   strconv.Itoa(e.TimesApplied),
		"success_count":   strconv.Itoa(e.SuccessCount),
		"failure_count":   strconv.Itoa(e.FailureCount),
		"status":          e.Status,
		"superseded_by":   e.SupersededBy,
		"source_session":  e.SourceSession,
		"source_type":     e.SourceType,
		"created_at":      e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":      e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"last_applied_at": lastApplied,
	}
}

// EntryFromMetadata reconstructs an entry from the flat metadata map and the
// document blob. The document splits on the separator into up to three parts;
// a solution containing the separator itself cannot be split back correctly.
func EntryFromMetadata(metadata map[string]string, document string) (*KnowledgeEntry, error) {
	parts := strings.SplitN(document, documentSeparator, 3)
	problemPattern := parts[0]
	solution := ""
	if len(parts) > 1 {
		solution = parts[1]
	}
	codeExample := ""
	if len(parts) > 2 {
		codeExample = parts[2]
	}

	tags := []string{}
	for _, t := range strings.Split(metadata["tags"], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	createdAt, err := parseTimestamp(metadata, "created_at")
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTimestamp(metadata, "updated_at")
	if err != nil {
		return nil, err
	}
	var lastAppliedAt *time.Time
	if v := metadata["last_applied_at"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse last_applied_at: %w", err)
		}
		lastAppliedAt = &t
	}

	qualityScore, err := parseFloatField(metadata, "quality_score", 0.5)
	if err != nil {
		return nil, err
	}
	timesApplied, err := parseIntField(metadata, "times_applied")
	if err != nil {
		return nil, err
	}
	successCount, err := parseIntField(metadata, "success_count")
	if err != nil {
		return nil, err
	}
	failureCount, err := parseIntField(metadata, "failure_count")
	if err != nil {
		return nil, err
	}

	entry := &KnowledgeEntry{
		ID:             metadata["id"],
		ProblemPattern: problemPattern,
		Solution:       solution,
		CodeExample:    codeExample,
		Tags:           tags,
		PatternType:    valueOr(metadata, "pattern_type", PatternBugfix),
		TimesApplied:   timesApplied,
		SuccessCount:   successCount,
		FailureCount:   failureCount,
		QualityScore:   qualityScore,
		Status:         valueOr(metadata, "status", StatusActive),
		SupersededBy:   metadata["superseded_by"],
		SourceSession:  metadata["source_session"],
		SourceType:     valueOr(metadata, "source_type", SourceSession),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		LastAppliedAt:  lastAppliedAt,
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("reconstructed entry invalid: %w", err)
	}
	return entry, nil
}

func parseTimestamp(metadata map[string]string, key string) (time.Time, error) {
	v := metadata[key]
	if v == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return t, nil
}

func parseFloatField(metadata map[string]string, key string, defaultVal float64) (float64, error) {
	v := metadata[key]
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func parseIntField(metadata map[string]string, key string) (int, error) {
	v := metadata[key]
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return i, nil
}

func valueOr(metadata map[string]string, key, defaultVal string) string {
	if v := metadata[key]; v != "" {
		return v
	}
	return defaultVal
}

func asAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
