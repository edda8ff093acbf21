package memory

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddTodo persists a new todo, defaulting status to pending and priority to
// medium.
func (s *Store) AddTodo(p AddTodoParams) (*Todo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, errors.New("memory: content is required")
	}

	status := p.Status
	if status == "" {
		status = StatusPending
	}
	priority := p.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	t := &Todo{
		ID:        uuid.NewString(),
		Content:   p.Content,
		Status:    status,
		Priority:  priority,
		Project:   p.Project,
		Context:   p.Context,
		Tags:      p.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO todos (id, content, status, priority, project, context, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Content, t.Status, t.Priority,
		nullableString(t.Project), nullableString(t.Context), encodeTags(t.Tags),
		fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTodos returns todos matching the filter, newest first.
func (s *Store) ListTodos(f TodoFilter) ([]Todo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	query := `SELECT ` + todoColumns + ` FROM todos WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		query += " AND priority = ?"
		args = append(args, f.Priority)
	}
	if f.Project != "" {
		query += " AND project = ?"
		args = append(args, f.Project)
	}
	if f.Context != "" {
		query += " AND context = ?"
		args = append(args, f.Context)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTodos(rows)
}

// UpdateTodo patches the given fields and always refreshes updated_at.
// A nil result without error means the id was absent.
func (s *Store) UpdateTodo(id string, p UpdateTodoParams) (*Todo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	existing, err := s.GetTodoByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if p.Content != nil {
		existing.Content = *p.Content
	}
	if p.Status != nil {
		existing.Status = *p.Status
	}
	if p.Priority != nil {
		existing.Priority = *p.Priority
	}
	if p.Project != nil {
		existing.Project = *p.Project
	}
	if p.Context != nil {
		existing.Context = *p.Context
	}
	if p.Tags != nil {
		existing.Tags = *p.Tags
	}
	existing.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE todos SET content = ?, status = ?, priority = ?, project = ?, context = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		existing.Content, existing.Status, existing.Priority,
		nullableString(existing.Project), nullableString(existing.Context), encodeTags(existing.Tags),
		fmtTime(existing.UpdatedAt), id,
	)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteTodo removes a todo and reports whether a row existed.
func (s *Store) DeleteTodo(id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTodoByID returns the todo with the given id, or nil if absent.
func (s *Store) GetTodoByID(id string) (*Todo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts, err := scanTodos(rows)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, nil
	}
	return &ts[0], nil
}

const todoColumns = `id, content, status, priority, project, context, tags, created_at, updated_at`

func scanTodos(rows *sql.Rows) ([]Todo, error) {
	var ts []Todo
	for rows.Next() {
		var (
			t                      Todo
			project, context, tags sql.NullString
			created, updated       string
		)
		if err := rows.Scan(
			&t.ID, &t.Content, &t.Status, &t.Priority,
			&project, &context, &tags, &created, &updated,
		); err != nil {
			return nil, err
		}
		t.Project = project.String
		t.Context = context.String
		t.Tags = decodeTags(tags.String)
		t.CreatedAt = parseTime(created)
		t.UpdatedAt = parseTime(updated)
		ts = append(ts, t)
	}
	return ts, rows.Err()
}
