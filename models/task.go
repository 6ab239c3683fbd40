// Package models contains the data models for the application to be used in request handling and persistence.
package models

// Status values a task may hold.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// legacyStatuses maps the status values written by the Portuguese edition of the
// service onto the current ones.
var legacyStatuses = map[string]string{
	"pendente":  StatusPending,
	"concluída": StatusCompleted,
}

// Task represents a task in the system.
// Task has the following properties:
// - Id: The caller supplied identifier of the task.
// - Title: The title of the task.
// - Description: The description of the task, empty by default.
// - Status: The status of the task, either "pending" or "completed".
type Task struct {
	Id          int    `json:"id"`
	Title       string `json:"titulo" validate:"fieldValidator"`
	Description string `json:"descricao"`
	Status      string `json:"status" validate:"statusValidator"`
}

// IsValidStatus reports whether status is one of the accepted task statuses.
func IsValidStatus(status string) bool {
	return status == StatusPending || status == StatusCompleted
}

// NormalizeStatus translates legacy status values and returns anything else unchanged.
func NormalizeStatus(status string) string {
	if s, ok := legacyStatuses[status]; ok {
		return s
	}
	return status
}
