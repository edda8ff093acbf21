// Package memory implements the persistent store for memcord.
//
// It keeps memories and todos in a single SQLite database and owns the only
// durable state in the process. Deduplication and ranked retrieval are built
// on the lexical scoring in similarity.go; everything above this package
// (service, tools, transports) is stateless between calls.
package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotInitialized is returned by every operation invoked before Open
// succeeded or after Close. The store never silently no-ops.
var ErrNotInitialized = errors.New("memory: store not initialized")

// Source values for memories.
const (
	SourceManual        = "manual"
	SourceAutoExtracted = "auto-extracted"
)

// DefaultContext is assigned to memories saved without an explicit context.
const DefaultContext = "general"

// dedupCandidateWindow bounds the dedup pre-filter to the most recent rows in
// the same context. Near-duplicates older than the window are not merged.
const dedupCandidateWindow = 5

// dedupPrefixLen is the length of the content prefix used by the cheap
// containment pre-filter before full scoring.
const dedupPrefixLen = 50

// ─── Types ───────────────────────────────────────────────────────────────────

// Memory is a stored fact with importance, context and optional
// project/category/tags. Content may be rewritten in place on dedup merge;
// OriginalContent preserves the first-seen text when enhancement altered it.
type Memory struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	OriginalContent string    `json:"original_content,omitempty"`
	Context         string    `json:"context"`
	Importance      int       `json:"importance"`
	Timestamp       time.Time `json:"timestamp"`
	Source          string    `json:"source"`
	Project         string    `json:"project,omitempty"`
	Category        string    `json:"category,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ScoredMemory is a Memory with its search relevance score.
type ScoredMemory struct {
	Memory
	Score float64 `json:"score"`
}

// Todo is a stored task with status and priority.
type Todo struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Project   string    `json:"project,omitempty"`
	Context   string    `json:"context,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Todo status and priority values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ProjectInfo is the derived per-project aggregate: memory count, distinct
// categories and the most recent update. It is never stored.
type ProjectInfo struct {
	Project     string    `json:"project"`
	Count       int       `json:"count"`
	Categories  []string  `json:"categories"`
	LastUpdated time.Time `json:"last_updated"`
}

// Stats holds aggregate counts for the CLI.
type Stats struct {
	TotalMemories int      `json:"total_memories"`
	TotalTodos    int      `json:"total_todos"`
	Projects      []string `json:"projects"`
	Contexts      []string `json:"contexts"`
}

// AddMemoryParams holds the input for creating a memory.
type AddMemoryParams struct {
	Content         string
	OriginalContent string
	Context         string
	Importance      int
	Source          string
	Project         string
	Category        string
	Tags            []string
}

// SearchOptions holds filters for ranked memory search.
type SearchOptions struct {
	Context   string
	Limit     int
	Threshold float64
}

// GetOptions holds filters for exact memory listing.
type GetOptions struct {
	Context string
	Limit   int
	Since   *time.Time
}

// AddTodoParams holds the input for creating a todo.
type AddTodoParams struct {
	Content  string
	Status   string
	Priority string
	Project  string
	Context  string
	Tags     []string
}

// TodoFilter holds filters for listing todos.
type TodoFilter struct {
	Status   string
	Priority string
	Project  string
	Context  string
	Limit    int
}

// UpdateTodoParams holds partial update fields; nil means "leave unchanged".
type UpdateTodoParams struct {
	Content  *string
	Status   *string
	Priority *string
	Project  *string
	Context  *string
	Tags     *[]string
}

// BankEntry is one memory in a bulk bank update.
type BankEntry struct {
	Content    string   `json:"content"`
	Context    string   `json:"context,omitempty"`
	Importance int      `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	Path           string
	Dedupe         bool
	DedupThreshold float64
	MaxResults     int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Path:           filepath.Join(home, ".memcord", "memcord.db"),
		Dedupe:         true,
		DedupThreshold: 0.9,
		MaxResults:     20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent engine backed by SQLite. A single Store is shared
// process-wide; SQLite's own locking is the only concurrency control.
type Store struct {
	db  *sql.DB
	cfg Config
}

// Open creates the data directory if needed, opens SQLite with WAL mode and
// a single shared connection, and ensures the schema idempotently.
func Open(cfg Config) (*Store, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = 0.9
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	db, err := openDB("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	// One shared connection avoids writer lock contention under the
	// concurrent HTTP transport.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection. Operations after Close
// fail with ErrNotInitialized.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ready fails fast when the store has not been opened (or was closed).
func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	return nil
}

// ─── Schema ──────────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id               TEXT    PRIMARY KEY,
			content          TEXT    NOT NULL,
			original_content TEXT,
			context          TEXT    NOT NULL DEFAULT 'general',
			importance       INTEGER NOT NULL DEFAULT 5,
			timestamp        TEXT    NOT NULL,
			source           TEXT    NOT NULL DEFAULT 'manual',
			project          TEXT,
			category         TEXT,
			tags             TEXT,
			created_at       TEXT    NOT NULL,
			updated_at       TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mem_context    ON memories(context);
		CREATE INDEX IF NOT EXISTS idx_mem_timestamp  ON memories(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_mem_importance ON memories(importance DESC);
		CREATE INDEX IF NOT EXISTS idx_mem_source     ON memories(source);
		CREATE INDEX IF NOT EXISTS idx_mem_project    ON memories(project);
		CREATE INDEX IF NOT EXISTS idx_mem_category   ON memories(category);

		CREATE TABLE IF NOT EXISTS todos (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			priority   TEXT NOT NULL DEFAULT 'medium',
			project    TEXT,
			context    TEXT,
			tags       TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_todo_status   ON todos(status);
		CREATE INDEX IF NOT EXISTS idx_todo_priority ON todos(priority);
		CREATE INDEX IF NOT EXISTS idx_todo_project  ON todos(project);
		CREATE INDEX IF NOT EXISTS idx_todo_context  ON todos(context);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Memories ────────────────────────────────────────────────────────────────

// AddMemory persists a memory. When deduplication is enabled and an existing
// memory in the same context scores at or above the dedup threshold, that row
// is updated in place (content replaced, importance raised to the max of the
// two) and returned with merged=true instead of inserting a new row.
func (s *Store) AddMemory(p AddMemoryParams) (*Memory, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, false, errors.New("memory: content is required")
	}

	ctx := p.Context
	if strings.TrimSpace(ctx) == "" {
		ctx = DefaultContext
	}
	importance := ClampImportance(p.Importance)
	source := p.Source
	if source == "" {
		source = SourceManual
	}

	if s.cfg.Dedupe {
		existing, err := s.findDuplicate(ctx, p.Content)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			now := time.Now().UTC()
			if importance < existing.Importance {
				importance = existing.Importance
			}
			if _, err := s.db.Exec(
				`UPDATE memories SET content = ?, importance = ?, updated_at = ? WHERE id = ?`,
				p.Content, importance, fmtTime(now), existing.ID,
			); err != nil {
				return nil, false, err
			}
			existing.Content = p.Content
			existing.Importance = importance
			existing.UpdatedAt = now
			return existing, true, nil
		}
	}

	now := time.Now().UTC()
	m := &Memory{
		ID:              uuid.NewString(),
		Content:         p.Content,
		OriginalContent: p.OriginalContent,
		Context:         ctx,
		Importance:      importance,
		Timestamp:       now,
		Source:          source,
		Project:         p.Project,
		Category:        p.Category,
		Tags:            p.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := s.db.Exec(
		`INSERT INTO memories (id, content, original_content, context, importance, timestamp, source, project, category, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Content, nullableString(m.OriginalContent), m.Context, m.Importance,
		fmtTime(m.Timestamp), m.Source, nullableString(m.Project), nullableString(m.Category),
		encodeTags(m.Tags), fmtTime(m.CreatedAt), fmtTime(m.UpdatedAt),
	)
	if err != nil {
		return nil, false, err
	}
	return m, false, nil
}

// findDuplicate runs the dedup pre-filter over the most recent candidates in
// the same context and full-scores the survivors. The candidate window is a
// deliberate bound: duplicates outside it are not merged.
//
// SQLite's lower() folds ASCII only, so mixed-case non-ASCII rows can slip
// past the pre-filter even when the scorer would match them.
func (s *Store) findDuplicate(ctx, content string) (*Memory, error) {
	prefix := strings.ToLower(content)
	if len(prefix) > dedupPrefixLen {
		prefix = prefix[:dedupPrefixLen]
	}

	rows, err := s.db.Query(
		`SELECT `+memoryColumns+` FROM memories
		 WHERE context = ? AND instr(lower(content), ?) > 0
		 ORDER BY created_at DESC
		 LIMIT ?`,
		ctx, prefix, dedupCandidateWindow,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if CoverageScore(content, candidates[i].Content) >= s.cfg.DedupThreshold {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// SearchMemories selects candidates with a cheap per-token containment
// filter, re-scores them with the coverage score, and returns matches at or
// above the threshold sorted by score descending.
func (s *Store) SearchMemories(query string, opts SearchOptions) ([]ScoredMemory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	// Same ASCII-only lower() caveat as the dedup pre-filter applies to
	// the per-token conditions below.
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return []ScoredMemory{}, nil
	}

	var conds []string
	var args []any
	for _, tok := range tokens {
		conds = append(conds, "instr(lower(content), ?) > 0")
		args = append(args, tok)
	}
	where := "(" + strings.Join(conds, " OR ") + ")"
	if opts.Context != "" {
		where += " AND context = ?"
		args = append(args, opts.Context)
	}

	rows, err := s.db.Query(
		`SELECT `+memoryColumns+` FROM memories WHERE `+where+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredMemory, 0, len(candidates))
	for _, m := range candidates {
		score := CoverageScore(query, m.Content)
		if score >= opts.Threshold {
			results = append(results, ScoredMemory{Memory: m, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetMemories returns memories by exact filter, newest first.
func (s *Store) GetMemories(opts GetOptions) ([]Memory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE 1=1`
	var args []any
	if opts.Context != "" {
		query += " AND context = ?"
		args = append(args, opts.Context)
	}
	if opts.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, fmtTime(opts.Since.UTC()))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// GetMemoryByID returns the memory with the given id, or nil if absent.
func (s *Store) GetMemoryByID(id string) (*Memory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ms, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return &ms[0], nil
}

// DeleteMemory removes a memory and reports whether a row existed.
func (s *Store) DeleteMemory(id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	res, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListProjects returns the derived per-project aggregates.
func (s *Store) ListProjects() ([]ProjectInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT project,
		       COUNT(*),
		       GROUP_CONCAT(DISTINCT category),
		       MAX(updated_at)
		FROM memories
		WHERE project IS NOT NULL AND project != ''
		GROUP BY project
		ORDER BY project
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []ProjectInfo
	for rows.Next() {
		var (
			info       ProjectInfo
			categories sql.NullString
			updated    string
		)
		if err := rows.Scan(&info.Project, &info.Count, &categories, &updated); err != nil {
			return nil, err
		}
		if categories.Valid && categories.String != "" {
			info.Categories = strings.Split(categories.String, ",")
			sort.Strings(info.Categories)
		}
		info.LastUpdated = parseTime(updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ListProjectFiles returns the distinct categories recorded for a project.
func (s *Store) ListProjectFiles(project string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT DISTINCT category FROM memories
		WHERE project = ? AND category IS NOT NULL AND category != ''
		ORDER BY category
	`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateMemoryBank bulk-inserts memories for a project inside one
// transaction: either every row commits or none do.
func (s *Store) UpdateMemoryBank(project, category string, entries []BankEntry) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if project == "" {
		return 0, errors.New("memory: project is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			return 0, errors.New("memory: bank entry content is required")
		}
		ctx := e.Context
		if ctx == "" {
			ctx = DefaultContext
		}
		if _, err := tx.Exec(
			`INSERT INTO memories (id, content, original_content, context, importance, timestamp, source, project, category, tags, created_at, updated_at)
			 VALUES (?, ?, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), e.Content, ctx, ClampImportance(e.Importance),
			fmtTime(now), SourceManual, project, nullableString(category),
			encodeTags(e.Tags), fmtTime(now), fmtTime(now),
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ExportRecords returns the memories matching the optional project/category
// filters, newest first. Rendering to a concrete format happens above the
// store.
func (s *Store) ExportRecords(project, category string) ([]Memory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE 1=1`
	var args []any
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Stats returns aggregate counts for the inspection CLI.
func (s *Store) Stats() (*Stats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	stats := &Stats{}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&stats.TotalMemories); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&stats.TotalTodos); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT DISTINCT project FROM memories WHERE project IS NOT NULL AND project != '' ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		stats.Projects = append(stats.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.Query(`SELECT DISTINCT context FROM memories ORDER BY context`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c string
		if err := crows.Scan(&c); err != nil {
			return nil, err
		}
		stats.Contexts = append(stats.Contexts, c)
	}
	return stats, crows.Err()
}

// ─── Row helpers ─────────────────────────────────────────────────────────────

const memoryColumns = `id, content, original_content, context, importance, timestamp, source, project, category, tags, created_at, updated_at`

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var ms []Memory
	for rows.Next() {
		var (
			m                           Memory
			original, project, category sql.NullString
			tags                        sql.NullString
			ts, created, updated        string
		)
		if err := rows.Scan(
			&m.ID, &m.Content, &original, &m.Context, &m.Importance,
			&ts, &m.Source, &project, &category, &tags, &created, &updated,
		); err != nil {
			return nil, err
		}
		m.OriginalContent = original.String
		m.Project = project.String
		m.Category = category.String
		m.Tags = decodeTags(tags.String)
		m.Timestamp = parseTime(ts)
		m.CreatedAt = parseTime(created)
		m.UpdatedAt = parseTime(updated)
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// ClampImportance forces importance into [1,10]; zero means "unspecified"
// and maps to the midpoint.
func ClampImportance(v int) int {
	switch {
	case v == 0:
		return 5
	case v < 1:
		return 1
	case v > 10:
		return 10
	}
	return v
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// encodeTags stores tags as a JSON array to preserve order.
func encodeTags(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// timeLayout is fixed-width so lexicographic order on the TEXT columns
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
