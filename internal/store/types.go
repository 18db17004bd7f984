package store

// Priority values for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the three known priorities.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// User is a local identity record for a forge account. One row per forge
// user id; re-authentication refreshes the cached profile fields.
type User struct {
	ID            int64  `db:"id" json:"id"`
	ForgejoUserID string `db:"forgejo_user_id" json:"forgejo_user_id"`
	Username      string `db:"username" json:"username"`
	Email         string `db:"email" json:"email"`
	FullName      string `db:"full_name" json:"full_name"`
	AvatarURL     string `db:"avatar_url" json:"avatar_url"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	UpdatedAt     string `db:"updated_at" json:"updated_at"`
}

// Todo is a single task owned by one user. CompletedAt is non-nil exactly
// when Completed is true.
type Todo struct {
	ID          int64   `db:"id" json:"id"`
	UserID      int64   `db:"user_id" json:"user_id"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description"`
	Priority    string  `db:"priority" json:"priority"`
	Completed   bool    `db:"completed" json:"completed"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`
	CompletedAt *string `db:"completed_at" json:"completed_at"`
}

// NewTodo is the input for CreateTodo. Title must already be validated and
// trimmed by the caller.
type NewTodo struct {
	Title       string
	Description *string
	Priority    string
	Completed   bool
}

// TodoPatch is a partial update. Nil fields are left untouched; the store
// only ever writes the fixed set of columns named here.
type TodoPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Completed   *bool
}

// Empty reports whether the patch touches nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Completed == nil
}

// ListFilters narrows ListTodos. Zero values (or "all") apply no predicate.
type ListFilters struct {
	Status   string // "", "all", "completed", "pending"
	Priority string // "", "all", "low", "medium", "high"
}

// Stats is the aggregate completion summary for one user.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"`
}
