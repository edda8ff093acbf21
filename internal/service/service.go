// Package service orchestrates validation, enhancement and persistence on
// top of the memory store. It never caches entities between calls: every
// operation re-reads or writes the store, which stays the single source of
// truth.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/memcord/memcord/internal/gitmeta"
	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/ollama"
)

// ErrValidation marks caller errors that must be rejected before touching
// the store.
var ErrValidation = errors.New("invalid parameters")

// Enhancer is the external text collaborator. All methods degrade to local
// fallbacks internally and never fail the surrounding operation. Rank may
// return nil to signal that no reordering is available.
type Enhancer interface {
	Enhance(ctx context.Context, content string) ollama.EnhanceResult
	Extract(ctx context.Context, text string) []ollama.Fact
	Rank(ctx context.Context, query string, candidates []string) []float64
}

// Options configures optional service behavior.
type Options struct {
	// Enhance rewrites memory content through the collaborator before
	// storage when true and an Enhancer is present.
	Enhance bool
	// AutoExtract additionally splits long added content into independent
	// auto-extracted facts when true and an Enhancer is present.
	AutoExtract bool
	// DefaultThreshold is used for searches that supply none.
	DefaultThreshold float64
	// Workdir is inspected for repository metadata when auto-tagging.
	Workdir string
}

// autoExtractMinLen is the content length below which automatic extraction
// is skipped on add; short notes are already a single fact.
const autoExtractMinLen = 280

// Service exposes the memory and todo operations to the protocol bridge.
type Service struct {
	store     *memory.Store
	enhancer  Enhancer
	inspector gitmeta.Inspector
	opts      Options
	logger    *log.Logger
}

// New creates a Service. enhancer and inspector may be nil; the matching
// features are then skipped.
func New(store *memory.Store, enhancer Enhancer, inspector gitmeta.Inspector, opts Options, logger *log.Logger) *Service {
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = 0.3
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:     store,
		enhancer:  enhancer,
		inspector: inspector,
		opts:      opts,
		logger:    logger,
	}
}

// AddMemoryRequest is the caller-facing input for AddMemory.
type AddMemoryRequest struct {
	Content    string
	Context    string
	Importance int
	Project    string
	Category   string
	Tags       []string
}

// AddMemoryResult reports what happened to a stored memory: whether it was
// merged into an existing near-duplicate, whether enhancement ran, and how
// many supplementary facts automatic extraction stored alongside it.
type AddMemoryResult struct {
	Memory    *memory.Memory
	Merged    bool
	Enhanced  bool
	Extracted int
}

// AddMemory validates, optionally enhances and auto-tags, then persists a
// memory. Enhancement failure is never fatal to the write.
func (s *Service) AddMemory(ctx context.Context, req AddMemoryRequest) (*AddMemoryResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	content := req.Content
	original := ""
	enhanced := false
	if s.opts.Enhance && s.enhancer != nil {
		res := s.enhancer.Enhance(ctx, content)
		if res.Enhanced {
			original = content
			content = res.Text
			enhanced = true
		} else {
			s.logger.Debug("enhancement unavailable, storing original content")
		}
	}

	project := req.Project
	tags := req.Tags
	if s.inspector != nil && project == "" && isDefaultContext(req.Context) {
		info := s.inspector.Inspect(s.opts.Workdir)
		if info.IsRepo {
			project = info.Project
			if info.Branch != "" && !containsString(tags, info.Branch) {
				tags = append(tags, info.Branch)
			}
		}
	}

	m, merged, err := s.store.AddMemory(memory.AddMemoryParams{
		Content:         content,
		OriginalContent: original,
		Context:         req.Context,
		Importance:      req.Importance,
		Source:          memory.SourceManual,
		Project:         project,
		Category:        req.Category,
		Tags:            tags,
	})
	if err != nil {
		return nil, err
	}

	extracted := 0
	if s.opts.AutoExtract && s.enhancer != nil && !merged && len(content) >= autoExtractMinLen {
		extracted = s.autoExtract(ctx, content, m.Context)
	}
	return &AddMemoryResult{Memory: m, Merged: merged, Enhanced: enhanced, Extracted: extracted}, nil
}

// autoExtract splits long content into supplementary auto-extracted facts.
// Failures are logged, never propagated: the primary write already happened.
func (s *Service) autoExtract(ctx context.Context, content, defaultContext string) int {
	stored := 0
	for _, f := range s.enhancer.Extract(ctx, content) {
		// The collaborator's local fallback echoes a truncation of the
		// input, which would merge back into the row just written.
		if strings.HasPrefix(content, strings.TrimSuffix(f.Content, "...")) {
			continue
		}
		ctxLabel := f.Context
		if ctxLabel == "" {
			ctxLabel = defaultContext
		}
		if _, _, err := s.store.AddMemory(memory.AddMemoryParams{
			Content:    f.Content,
			Context:    ctxLabel,
			Importance: memory.ClampImportance(f.Importance),
			Source:     memory.SourceAutoExtracted,
		}); err != nil {
			s.logger.Warn("storing auto-extracted fact", "err", err)
			continue
		}
		stored++
	}
	return stored
}

// SearchMemories runs ranked retrieval; a zero threshold falls back to the
// configured default. With a collaborator present the lexically filtered
// results are re-ranked by its relevance scores; when the collaborator
// declines, the store's coverage ordering stands.
func (s *Service) SearchMemories(ctx context.Context, query string, opts memory.SearchOptions) ([]memory.ScoredMemory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.opts.DefaultThreshold
	}
	results, err := s.store.SearchMemories(query, opts)
	if err != nil {
		return nil, err
	}
	if s.enhancer != nil && len(results) > 1 {
		s.rerank(ctx, query, results)
	}
	return results, nil
}

// rerank reorders search results in place by the collaborator's relevance
// scores. The coverage threshold has already been applied; re-ranking only
// changes order and the reported score, never membership.
func (s *Service) rerank(ctx context.Context, query string, results []memory.ScoredMemory) {
	candidates := make([]string, len(results))
	for i, r := range results {
		candidates[i] = r.Content
	}
	scores := s.enhancer.Rank(ctx, query, candidates)
	if len(scores) != len(results) {
		return
	}
	for i := range results {
		results[i].Score = scores[i]
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// GetMemories lists memories by exact filter.
func (s *Service) GetMemories(opts memory.GetOptions) ([]memory.Memory, error) {
	return s.store.GetMemories(opts)
}

// DeleteMemory removes a memory; false means the id was absent, which is a
// normal result, not an error.
func (s *Service) DeleteMemory(id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("%w: id is required", ErrValidation)
	}
	return s.store.DeleteMemory(id)
}

// ExtractMemories asks the collaborator for fact candidates in free text and
// persists each as an independent auto-extracted memory. Without a
// collaborator the whole text becomes a single truncated fact.
func (s *Service) ExtractMemories(ctx context.Context, text, defaultContext string) ([]memory.Memory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	var facts []ollama.Fact
	if s.enhancer != nil {
		facts = s.enhancer.Extract(ctx, text)
	} else {
		facts = []ollama.Fact{{Content: truncate(text, 200)}}
	}

	var created []memory.Memory
	for _, f := range facts {
		ctxLabel := f.Context
		if ctxLabel == "" {
			ctxLabel = defaultContext
		}
		m, _, err := s.store.AddMemory(memory.AddMemoryParams{
			Content:    f.Content,
			Context:    ctxLabel,
			Importance: memory.ClampImportance(f.Importance),
			Source:     memory.SourceAutoExtracted,
		})
		if err != nil {
			return created, err
		}
		created = append(created, *m)
	}
	return created, nil
}

// ListProjects returns the derived project aggregates.
func (s *Service) ListProjects() ([]memory.ProjectInfo, error) {
	return s.store.ListProjects()
}

// ListProjectFiles returns the distinct categories for a project.
func (s *Service) ListProjectFiles(project string) ([]string, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: project is required", ErrValidation)
	}
	return s.store.ListProjectFiles(project)
}

// UpdateMemoryBank bulk-inserts memories for a project atomically.
func (s *Service) UpdateMemoryBank(project, category string, entries []memory.BankEntry) (int, error) {
	if strings.TrimSpace(project) == "" {
		return 0, fmt.Errorf("%w: project is required", ErrValidation)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: memories are required", ErrValidation)
	}
	return s.store.UpdateMemoryBank(project, category, entries)
}

// ─── Todos ───────────────────────────────────────────────────────────────────

var (
	validStatuses  = map[string]bool{memory.StatusPending: true, memory.StatusInProgress: true, memory.StatusCompleted: true}
	validPriorites = map[string]bool{memory.PriorityLow: true, memory.PriorityMedium: true, memory.PriorityHigh: true}
)

// AddTodo validates enums and persists a new todo.
func (s *Service) AddTodo(p memory.AddTodoParams) (*memory.Todo, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if p.Status != "" && !validStatuses[p.Status] {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, p.Status)
	}
	if p.Priority != "" && !validPriorites[p.Priority] {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, p.Priority)
	}
	return s.store.AddTodo(p)
}

// ListTodos lists todos by filter.
func (s *Service) ListTodos(f memory.TodoFilter) ([]memory.Todo, error) {
	return s.store.ListTodos(f)
}

// UpdateTodo patches a todo; nil result means the id was absent.
func (s *Service) UpdateTodo(id string, p memory.UpdateTodoParams) (*memory.Todo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if p.Status != nil && !validStatuses[*p.Status] {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *p.Status)
	}
	if p.Priority != nil && !validPriorites[*p.Priority] {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, *p.Priority)
	}
	return s.store.UpdateTodo(id, p)
}

// DeleteTodo removes a todo; false means the id was absent.
func (s *Service) DeleteTodo(id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("%w: id is required", ErrValidation)
	}
	return s.store.DeleteTodo(id)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func isDefaultContext(ctx string) bool {
	return ctx == "" || ctx == memory.DefaultContext
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
