// Package todo implements the todo collection: storage, service and HTTP handlers.
package todo

// Todo is a stored todo item
type Todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
}

// Input is the client-writable part of a todo, used by create and update.
// id and created_at are always server-assigned.
type Input struct {
	Title       string
	Description string
	Completed   bool
}

// Stats summarizes the collection
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// DeleteResult is returned by delete
type DeleteResult struct {
	Message string `json:"message"`
	Deleted Todo   `json:"deleted"`
}

const deletedMessage = "Todo deleted successfully"
