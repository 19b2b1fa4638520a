package domain

import "time"

// TaskStatus represents the status of an import task.
// Values include TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted,
// and TaskStatusFailed.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// DefaultMaxRetries is the retry budget assigned to new import tasks.
const DefaultMaxRetries = 3

// ImportTask represents one scheduled "process this source" unit of work.
// A task whose RetryCount has reached MaxRetries is terminal: it must never
// be picked up again and ends in TaskStatusFailed.
type ImportTask struct {
	ID            string     `gorm:"type:text;primaryKey" json:"id"`
	SourceID      string     `gorm:"type:text;not null;index" json:"source_id"`
	Status        TaskStatus `gorm:"type:text;default:PENDING;index" json:"status"`
	Priority      int        `gorm:"default:0;index" json:"priority"`
	RetryCount    int        `gorm:"default:0" json:"retry_count"`
	MaxRetries    int        `gorm:"default:3" json:"max_retries"`
	TotalJobs     int        `gorm:"default:0" json:"total_jobs"`
	ProcessedJobs int        `gorm:"default:0" json:"processed_jobs"`
	CreatedJobs   int        `gorm:"default:0" json:"created_jobs"`
	SkippedJobs   int        `gorm:"default:0" json:"skipped_jobs"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ImportTask.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ImportTask) TableName() string {
	return "import_tasks"
}
