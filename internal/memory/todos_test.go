package memory_test

import (
	"testing"
	"time"

	"github.com/memcord/memcord/internal/memory"
)

func addTodo(t *testing.T, s *memory.Store, p memory.AddTodoParams) *memory.Todo {
	t.Helper()
	todo, err := s.AddTodo(p)
	if err != nil {
		t.Fatalf("AddTodo error: %v", err)
	}
	return todo
}

// ─── AddTodo ────────────────────────────────────────────────────────────────

func TestAddTodo_Defaults(t *testing.T) {
	s := newTestStore(t)

	todo := addTodo(t, s, memory.AddTodoParams{Content: "write release notes"})
	if todo.ID == "" {
		t.Error("expected a generated ID")
	}
	if todo.Status != memory.StatusPending {
		t.Errorf("status = %q, want %q", todo.Status, memory.StatusPending)
	}
	if todo.Priority != memory.PriorityMedium {
		t.Errorf("priority = %q, want %q", todo.Priority, memory.PriorityMedium)
	}
}

func TestAddTodo_EmptyContentRejected(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTodo(memory.AddTodoParams{Content: "  "}); err == nil {
		t.Fatal("expected error for blank content")
	}
}

// ─── ListTodos ──────────────────────────────────────────────────────────────

func TestListTodos_Filters(t *testing.T) {
	s := newTestStore(t)

	addTodo(t, s, memory.AddTodoParams{Content: "a", Status: memory.StatusPending, Priority: memory.PriorityHigh, Project: "svc"})
	addTodo(t, s, memory.AddTodoParams{Content: "b", Status: memory.StatusCompleted, Priority: memory.PriorityHigh, Project: "svc"})
	addTodo(t, s, memory.AddTodoParams{Content: "c", Status: memory.StatusPending, Priority: memory.PriorityLow, Project: "cli"})

	tests := []struct {
		name   string
		filter memory.TodoFilter
		want   int
	}{
		{"all", memory.TodoFilter{}, 3},
		{"by status", memory.TodoFilter{Status: memory.StatusPending}, 2},
		{"by priority", memory.TodoFilter{Priority: memory.PriorityHigh}, 2},
		{"by project", memory.TodoFilter{Project: "cli"}, 1},
		{"combined", memory.TodoFilter{Status: memory.StatusPending, Project: "svc"}, 1},
		{"limit", memory.TodoFilter{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTodos(tt.filter)
			if err != nil {
				t.Fatalf("ListTodos error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d todos, want %d", len(got), tt.want)
			}
		})
	}
}

// ─── UpdateTodo ─────────────────────────────────────────────────────────────

func TestUpdateTodo_PartialUpdate(t *testing.T) {
	s := newTestStore(t)

	todo := addTodo(t, s, memory.AddTodoParams{
		Content:  "ship the fix",
		Priority: memory.PriorityHigh,
	})

	time.Sleep(5 * time.Millisecond)
	status := memory.StatusCompleted
	updated, err := s.UpdateTodo(todo.ID, memory.UpdateTodoParams{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTodo error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected the updated todo, got nil")
	}
	if updated.Status != memory.StatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.Content != "ship the fix" {
		t.Errorf("content changed unexpectedly: %q", updated.Content)
	}
	if updated.Priority != memory.PriorityHigh {
		t.Errorf("priority changed unexpectedly: %q", updated.Priority)
	}
	if !updated.UpdatedAt.After(todo.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", todo.UpdatedAt, updated.UpdatedAt)
	}
}

func TestUpdateTodo_Missing(t *testing.T) {
	s := newTestStore(t)

	content := "anything"
	updated, err := s.UpdateTodo("no-such-id", memory.UpdateTodoParams{Content: &content})
	if err != nil {
		t.Fatalf("UpdateTodo error: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil for unknown id, got %+v", updated)
	}
}

// ─── DeleteTodo ─────────────────────────────────────────────────────────────

func TestDeleteTodo(t *testing.T) {
	s := newTestStore(t)

	todo := addTodo(t, s, memory.AddTodoParams{Content: "remove me"})
	deleted, err := s.DeleteTodo(todo.ID)
	if err != nil {
		t.Fatalf("DeleteTodo error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true for existing id")
	}

	deleted, err = s.DeleteTodo(todo.ID)
	if err != nil {
		t.Fatalf("DeleteTodo (again) error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false for already-deleted id")
	}
}
