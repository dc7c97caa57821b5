// ABOUTME: Tests for the KnowledgeEntry model and its flat serialization
// ABOUTME: Covers validation rules, document round-trips, and defaulting

package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validEntry() KnowledgeEntry {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return KnowledgeEntry{
		ID:             "550e8400-e29b-41d4-a716-446655440000",
		ProblemPattern: "pytest fixtures not found",
		Solution:       "Move conftest.py to the test root",
		CodeExample:    "# conftest.py\nimport pytest",
		Tags:           []string{"pytest", "fixtures"},
		PatternType:    PatternBugfix,
		QualityScore:   0.5,
		Status:         StatusActive,
		SourceType:     SourceSession,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestKnowledgeEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*KnowledgeEntry)
		wantErr bool
	}{
		{"valid entry", func(e *KnowledgeEntry) {}, false},
		{"missing id", func(e *KnowledgeEntry) { e.ID = "" }, true},
		{"missing problem pattern", func(e *KnowledgeEntry) { e.ProblemPattern = "" }, true},
		{"missing solution", func(e *KnowledgeEntry) { e.Solution = "" }, true},
		{"invalid pattern type", func(e *KnowledgeEntry) { e.PatternType = "refactor" }, true},
		{"invalid status", func(e *KnowledgeEntry) { e.Status = "pending" }, true},
		{"invalid source type", func(e *KnowledgeEntry) { e.SourceType = "import" }, true},
		{"quality score too high", func(e *KnowledgeEntry) { e.QualityScore = 1.5 }, true},
		{"quality score too low", func(e *KnowledgeEntry) { e.QualityScore = -0.1 }, true},
		{"quality score at bounds", func(e *KnowledgeEntry) { e.QualityScore = 1.0 }, false},
		{"tag with comma", func(e *KnowledgeEntry) { e.Tags = []string{"a,b"} }, true},
		{"empty tags", func(e *KnowledgeEntry) { e.Tags = nil }, false},
		{"all pattern types", func(e *KnowledgeEntry) { e.PatternType = PatternArchitecture }, false},
		{"canonical status", func(e *KnowledgeEntry) { e.Status = StatusCanonical }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)
			err := entry.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestToDocument(t *testing.T) {
	entry := validEntry()
	doc := entry.ToDocument()

	want := entry.ProblemPattern + "\n\n" + entry.Solution + "\n\n" + entry.CodeExample
	if doc != want {
		t.Errorf("ToDocument() = %q, want %q", doc, want)
	}
}

func TestToDocument_NoCodeExample(t *testing.T) {
	entry := validEntry()
	entry.CodeExample = ""

	doc := entry.ToDocument()
	if strings.HasSuffix(doc, "\n\n") {
		t.Errorf("document should not end with separator: %q", doc)
	}
	if doc != entry.ProblemPattern+"\n\n"+entry.Solution {
		t.Errorf("ToDocument() = %q", doc)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	lastApplied := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	entry := validEntry()
	entry.TimesApplied = 4
	entry.SuccessCount = 3
	entry.FailureCount = 1
	entry.QualityScore = 0.75
	entry.Status = StatusSuperseded
	entry.SupersededBy = "other-id"
	entry.SourceSession = "session-42"
	entry.LastAppliedAt = &lastApplied

	got, err := EntryFromMetadata(entry.ToMetadata(), entry.ToDocument())
	if err != nil {
		t.Fatalf("EntryFromMetadata() error: %v", err)
	}

	if !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, entry.CreatedAt)
	}
	if !got.UpdatedAt.Equal(entry.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, entry.UpdatedAt)
	}
	if got.LastAppliedAt == nil || !got.LastAppliedAt.Equal(lastApplied) {
		t.Errorf("LastAppliedAt = %v, want %v", got.LastAppliedAt, lastApplied)
	}

	// Normalize timestamps so the struct comparison only covers the rest.
	got.CreatedAt = entry.CreatedAt
	got.UpdatedAt = entry.UpdatedAt
	got.LastAppliedAt = entry.LastAppliedAt
	if !reflect.DeepEqual(*got, entry) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", *got, entry)
	}
}

func TestMetadataRoundTrip_MinimalEntry(t *testing.T) {
	entry := validEntry()
	entry.CodeExample = ""
	entry.Tags = []string{}

	got, err := EntryFromMetadata(entry.ToMetadata(), entry.ToDocument())
	if err != nil {
		t.Fatalf("EntryFromMetadata() error: %v", err)
	}
	if got.CodeExample != "" {
		t.Errorf("CodeExample = %q, want empty", got.CodeExample)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", got.Tags)
	}
	if got.LastAppliedAt != nil {
		t.Errorf("LastAppliedAt = %v, want nil", got.LastAppliedAt)
	}
}

func TestMetadataRoundTrip_SeparatorInCodeExample(t *testing.T) {
	// A code example containing blank lines survives because the split
	// keeps the remainder in the third part.
	entry := validEntry()
	entry.CodeExample = "def f():\n\n    pass\n\n# done"

	got, err := EntryFromMetadata(entry.ToMetadata(), entry.ToDocument())
	if err != nil {
		t.Fatalf("EntryFromMetadata() error: %v", err)
	}
	if got.CodeExample != entry.CodeExample {
		t.Errorf("CodeExample = %q, want %q", got.CodeExample, entry.CodeExample)
	}
}

func TestEntryFromMetadata_Defaults(t *testing.T) {
	metadata := map[string]string{
		"id": "some-id",
	}
	got, err := EntryFromMetadata(metadata, "problem\n\nsolution")
	if err != nil {
		t.Fatalf("EntryFromMetadata() error: %v", err)
	}

	if got.PatternType != PatternBugfix {
		t.Errorf("PatternType = %q, want %q", got.PatternType, PatternBugfix)
	}
	if got.Status != StatusActive {
		t.Errorf("Status = %q, want %q", got.Status, StatusActive)
	}
	if got.SourceType != SourceSession {
		t.Errorf("SourceType = %q, want %q", got.SourceType, SourceSession)
	}
	if got.QualityScore != 0.5 {
		t.Errorf("QualityScore = %v, want 0.5", got.QualityScore)
	}
}

func TestEntryFromMetadata_BadTimestamp(t *testing.T) {
	entry := validEntry()
	metadata := entry.ToMetadata()
	metadata["created_at"] = "yesterday"

	if _, err := EntryFromMetadata(metadata, entry.ToDocument()); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestEntryFromMetadata_BadNumber(t *testing.T) {
	entry := validEntry()
	metadata := entry.ToMetadata()
	metadata["times_applied"] = "lots"

	if _, err := EntryFromMetadata(metadata, entry.ToDocument()); err == nil {
		t.Error("expected error for malformed counter")
	}
}

func TestToMetadata_TagsJoined(t *testing.T) {
	entry := validEntry()
	entry.Tags = []string{"go", "testing", "ci"}

	metadata := entry.ToMetadata()
	if metadata["tags"] != "go,testing,ci" {
		t.Errorf("tags = %q, want %q", metadata["tags"], "go,testing,ci")
	}
}
