// ABOUTME: Store adapter implementing all CRUD, search, and analytics operations
// ABOUTME: Everything the tool catalog exposes funnels through this type
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/apperr"
	"github.com/Claire-s-Monster/knowledge-store/internal/config"
	"github.com/Claire-s-Monster/knowledge-store/internal/models"
	"github.com/Claire-s-Monster/knowledge-store/internal/vectorstore"
)

// statsScanCap bounds the full scan behind GetStats. Beyond this many entries
// the statistics silently undercount.
const statsScanCap = 100000

// defaultListLimit matches the list_entries catalog default.
const defaultListLimit = 100

// immutableFields cannot be changed after creation. Content fields are
// excluded from updates because the embedded document is never rewritten.
var immutableFields = map[string]struct{}{
	"id":             {},
	"problem_pattern": {},
	"solution":        {},
	"code_example":    {},
	"created_at":      {},
	"source_session":  {},
	"source_type":     {},
}

// Store is the data-access layer over the external vector store.
type Store struct {
	backend          vectorstore.Store
	defaultLimit     int
	defaultThreshold float64
	log              *zap.Logger
	now              func() time.Time
}

// NewStore builds a Store with search defaults taken from configuration.
func NewStore(backend vectorstore.Store, cfg *config.Config, log *zap.Logger) *Store {
	return &Store{
		backend:          backend,
		defaultLimit:     cfg.DefaultSearchLimit,
		defaultThreshold: cfg.DefaultSimilarityThreshold,
		log:              log,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// AddParams carries the caller-settable fields for a new entry.
type AddParams struct {
	ProblemPattern string
	Solution       string
	CodeExample    string
	Tags           []string
	PatternType    string
	SourceSession  string
	SourceType     string
}

// AddEntry creates and persists a new entry. Failures come back as an
// unsuccessful result, never an error.
func (s *Store) AddEntry(ctx context.Context, p AddParams) models.EntryResult {
	if p.PatternType == "" {
		p.PatternType = models.PatternBugfix
	}
	if p.SourceType == "" {
		p.SourceType = models.SourceSession
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	entry := &models.KnowledgeEntry{
		ID:             uuid.New().String(),
		ProblemPattern: p.ProblemPattern,
		Solution:       p.Solution,
		CodeExample:    p.CodeExample,
		Tags:           tags,
		PatternType:    p.PatternType,
		QualityScore:   0.5,
		Status:         models.StatusActive,
		SourceSession:  p.SourceSession,
		SourceType:     p.SourceType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := entry.Validate(); err != nil {
		return models.EntryResult{Success: false, Message: err.Error()}
	}

	err := s.backend.Insert(ctx, vectorstore.Document{
		ID:       entry.ID,
		Content:  entry.ToDocument(),
		Metadata: entry.ToMetadata(),
	})
	if err != nil {
		s.log.Error("entry add failed", zap.Error(err))
		return models.EntryResult{Success: false, Message: err.Error()}
	}

	s.log.Info("entry added", zap.String("entry_id", entry.ID), zap.Strings("tags", tags))
	return models.EntryResult{Success: true, EntryID: entry.ID, Entry: entry}
}

// GetEntry fetches an entry by id. Absence and backend failure come back as
// distinct error kinds; an unparseable stored record is also an error, since
// "unreadable" is not "absent".
func (s *Store) GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error) {
	doc, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		s.log.Error("entry get failed", zap.String("entry_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperr.ErrBackend, err)
	}

	entry, err := models.EntryFromMetadata(doc.Metadata, doc.Content)
	if err != nil {
		s.log.Error("metadata parse failed", zap.String("entry_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperr.ErrBackend, err)
	}
	return entry, nil
}

// UpdateEntry applies a partial update. Touching any immutable field rejects
// the whole update; nothing is written in that case.
func (s *Store) UpdateEntry(ctx context.Context, id string, updates map[string]interface{}) models.EntryResult {
	var rejected []string
	for key := range updates {
		if _, ok := immutableFields[key]; ok {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return models.EntryResult{
			Success: false,
			Message: fmt.Sprintf("cannot update immutable fields: %s", strings.Join(rejected, ", ")),
		}
	}

	existing, err := s.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.EntryResult{Success: false, Message: "Entry not found"}
		}
		return models.EntryResult{Success: false, Message: err.Error()}
	}

	merged := *existing
	if err := applyUpdates(&merged, updates); err != nil {
		return models.EntryResult{Success: false, Message: err.Error()}
	}
	merged.UpdatedAt = s.now()

	if err := merged.Validate(); err != nil {
		return models.EntryResult{Success: false, Message: err.Error()}
	}

	// Content fields are immutable, so only the metadata gets rewritten.
	if err := s.backend.UpdateMetadata(ctx, id, merged.ToMetadata()); err != nil {
		s.log.Error("entry update failed", zap.String("entry_id", id), zap.Error(err))
		return models.EntryResult{Success: false, Message: err.Error()}
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.log.Info("entry updated", zap.String("entry_id", id), zap.Strings("updates", keys))
	return models.EntryResult{Success: true, EntryID: id, Entry: &merged}
}

func applyUpdates(entry *models.KnowledgeEntry, updates map[string]interface{}) error {
	for key, value := range updates {
		switch key {
		case "tags":
			tags, err := toStringSlice(value)
			if err != nil {
				return fmt.Errorf("tags: %w", err)
			}
			entry.Tags = tags
		case "pattern_type":
			s, err := toString(value)
			if err != nil {
				return fmt.Errorf("pattern_type: %w", err)
			}
			entry.PatternType = s
		case "status":
			s, err := toString(value)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			entry.Status = s
		case "superseded_by":
			s, err := toString(value)
			if err != nil {
				return fmt.Errorf("superseded_by: %w", err)
			}
			entry.SupersededBy = s
		case "quality_score":
			f, ok := toFloat(value)
			if !ok {
				return fmt.Errorf("quality_score: expected number, got %T", value)
			}
			entry.QualityScore = f
		case "times_applied":
			n, err := toInt(value)
			if err != nil {
				return fmt.Errorf("times_applied: %w", err)
			}
			entry.TimesApplied = n
		case "success_count":
			n, err := toInt(value)
			if err != nil {
				return fmt.Errorf("success_count: %w", err)
			}
			entry.SuccessCount = n
		case "failure_count":
			n, err := toInt(value)
			if err != nil {
				return fmt.Errorf("failure_count: %w", err)
			}
			entry.FailureCount = n
		case "last_applied_at":
			s, err := toString(value)
			if err != nil {
				return fmt.Errorf("last_applied_at: %w", err)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("last_applied_at: %w", err)
			}
			entry.LastAppliedAt = &t
		case "updated_at":
			// Stamped by the store after the merge; a caller-provided
			// value is accepted but ignored.
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return nil
}

// DeleteEntry removes an entry. Deleting an unknown id reports the backend's
// outcome, which treats it as a no-op success.
func (s *Store) DeleteEntry(ctx context.Context, id string) bool {
	if err := s.backend.Delete(ctx, id); err != nil {
		s.log.Error("entry delete failed", zap.String("entry_id", id), zap.Error(err))
		return false
	}
	s.log.Info("entry deleted", zap.String("entry_id", id))
	return true
}

// Search runs a semantic query over the embedded documents. Results arrive
// ordered by descending similarity as the index returns them.
func (s *Store) Search(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	filter, err := ParseFilter(filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	// Conditions the store cannot evaluate natively get applied after the
	// query, so the candidate set has to be wide enough to survive them.
	fetchLimit := limit
	if filter.HasResidual() {
		fetchLimit = statsScanCap
	}

	raw, err := s.backend.Query(ctx, query, fetchLimit, filter.WhereEquals())
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperr.ErrBackend, err)
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, r := range raw {
		if !filter.Matches(r.Metadata) {
			continue
		}
		entry, err := models.EntryFromMetadata(r.Metadata, r.Content)
		if err != nil {
			s.log.Error("metadata parse failed", zap.String("entry_id", r.ID), zap.Error(err))
			continue
		}
		results = append(results, models.SearchResult{
			Entry:           entry,
			SimilarityScore: clampScore(float64(r.Similarity)),
		})
		if len(results) == limit {
			break
		}
	}

	s.log.Info("search completed", zap.Int("query_length", len(query)), zap.Int("results", len(results)))
	return results, nil
}

// FindSimilar searches with the source entry's own document as the query and
// drops the source itself plus anything under the threshold.
func (s *Store) FindSimilar(ctx context.Context, id string, threshold float64, limit int) ([]models.SearchResult, error) {
	if threshold < 0 {
		threshold = s.defaultThreshold
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	// One extra result covers the source entry matching itself.
	raw, err := s.Search(ctx, entry.ToDocument(), limit+1, nil)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, r := range raw {
		if r.Entry.ID == id || r.SimilarityScore < threshold {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// ListEntries returns entries matching the filters, paged client-side. The
// store has no native offset, so the cost is O(limit+offset).
func (s *Store) ListEntries(ctx context.Context, filters map[string]interface{}, limit, offset int) ([]models.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter, err := ParseFilter(filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	fetchLimit := limit + offset
	if filter.HasResidual() {
		fetchLimit = statsScanCap
	}

	docs, err := s.backend.Scan(ctx, filter.WhereEquals(), fetchLimit)
	if err != nil {
		s.log.Error("list entries failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperr.ErrBackend, err)
	}

	entries := make([]models.KnowledgeEntry, 0, limit)
	matched := 0
	for _, doc := range docs {
		if !filter.Matches(doc.Metadata) {
			continue
		}
		matched++
		if matched <= offset {
			continue
		}
		entry, err := models.EntryFromMetadata(doc.Metadata, doc.Content)
		if err != nil {
			s.log.Error("metadata parse failed", zap.String("entry_id", doc.ID), zap.Error(err))
			continue
		}
		entries = append(entries, *entry)
		if len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// GetStats aggregates over a full scan of the collection, capped at
// statsScanCap entries.
func (s *Store) GetStats(ctx context.Context) (models.StoreStats, error) {
	entries, err := s.ListEntries(ctx, nil, statsScanCap, 0)
	if err != nil {
		s.log.Error("get stats failed", zap.Error(err))
		return emptyStats(), err
	}

	stats := emptyStats()
	stats.TotalEntries = len(entries)

	tagCounts := map[string]int{}
	var qualitySum float64
	for i := range entries {
		e := &entries[i]
		stats.EntriesByStatus[e.Status]++
		stats.EntriesByType[e.PatternType]++
		qualitySum += e.QualityScore
		for _, tag := range e.Tags {
			tagCounts[tag]++
		}
	}
	if len(entries) > 0 {
		stats.AvgQualityScore = qualitySum / float64(len(entries))
	}

	for tag, count := range tagCounts {
		stats.TopTags = append(stats.TopTags, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		return stats.TopTags[i].Count > stats.TopTags[j].Count
	})
	if len(stats.TopTags) > 10 {
		stats.TopTags = stats.TopTags[:10]
	}

	return stats, nil
}

// EntryCount reports the collection size, for health reporting.
func (s *Store) EntryCount(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

func emptyStats() models.StoreStats {
	return models.StoreStats{
		EntriesByStatus: map[string]int{},
		EntriesByType:   map[string]int{},
		TopTags:         []models.TagCount{},
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func toString(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string, got %T", value)
}

func toStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected string array, got %T", value)
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}
