package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ListTodos returns the user's todos, newest first, optionally narrowed by
// status and priority.
func (s *Store) ListTodos(ctx context.Context, userID int64, f ListFilters) ([]Todo, error) {
	query := `SELECT * FROM todos WHERE user_id = ?`
	args := []interface{}{userID}

	switch f.Status {
	case "completed":
		query += ` AND completed = 1`
	case "pending":
		query += ` AND completed = 0`
	}
	if f.Priority != "" && f.Priority != "all" {
		query += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	todos := []Todo{}
	if err := s.db.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// CreateTodo inserts a todo and returns the stored row. Priority defaults to
// medium; a todo created already-completed gets its completed_at stamped.
func (s *Store) CreateTodo(ctx context.Context, userID int64, in NewTodo) (*Todo, error) {
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	now := nowUTC()
	var completedAt *string
	if in.Completed {
		completedAt = &now
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (user_id, title, description, priority, completed, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Title, in.Description, priority, in.Completed, now, now, completedAt)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert todo id: %w", err)
	}
	return s.getTodo(ctx, userID, id)
}

func (s *Store) getTodo(ctx context.Context, userID, todoID int64) (*Todo, error) {
	var t Todo
	err := s.db.GetContext(ctx, &t, `SELECT * FROM todos WHERE user_id = ? AND id = ?`, userID, todoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load todo %d: %w", todoID, err)
	}
	return &t, nil
}

// UpdateTodo applies a partial update to a todo owned by userID. Only the
// columns named in the patch are written; flipping completed also sets or
// clears completed_at. Returns ErrNotFound when no row matches both ids.
func (s *Store) UpdateTodo(ctx context.Context, userID, todoID int64, p TodoPatch) (*Todo, error) {
	if p.Empty() {
		return nil, ErrNoFields
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return nil, fmt.Errorf("invalid priority %q", *p.Priority)
	}

	now := nowUTC()
	sets := []string{}
	args := []interface{}{}

	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		if *p.Description == "" {
			args = append(args, nil)
		} else {
			args = append(args, *p.Description)
		}
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *p.Priority)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?", "completed_at = ?")
		if *p.Completed {
			args = append(args, true, now)
		} else {
			args = append(args, false, nil)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, userID, todoID)

	query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", todoID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", todoID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.getTodo(ctx, userID, todoID)
}

// DeleteTodo removes a todo owned by userID and returns the deleted row.
func (s *Store) DeleteTodo(ctx context.Context, userID, todoID int64) (*Todo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete todo %d: %w", todoID, err)
	}
	defer tx.Rollback()

	var t Todo
	err = tx.GetContext(ctx, &t, `SELECT * FROM todos WHERE user_id = ? AND id = ?`, userID, todoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete todo %d: %w", todoID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE user_id = ? AND id = ?`, userID, todoID); err != nil {
		return nil, fmt.Errorf("delete todo %d: %w", todoID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete todo %d: %w", todoID, err)
	}
	return &t, nil
}

// Stats aggregates the user's completion counts. An empty list yields all
// zeros rather than a division error.
func (s *Store) Stats(ctx context.Context, userID int64) (*Stats, error) {
	var row struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0) AS completed
		FROM todos WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("todo stats: %w", err)
	}

	st := &Stats{
		Total:     row.Total,
		Completed: row.Completed,
		Pending:   row.Total - row.Completed,
	}
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) * 100 / float64(st.Total)))
	}
	return st, nil
}
