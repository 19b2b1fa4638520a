package domain

import "time"

// ImportLogStatus represents the outcome of one processor run.
type ImportLogStatus string

const (
	ImportLogRunning   ImportLogStatus = "running"
	ImportLogCompleted ImportLogStatus = "completed"
	ImportLogFailed    ImportLogStatus = "failed"
)

// ImportLog records the outcome of a single processor run against a source.
// Completed logs feed the scorer's trailing-7-day weekly volume query via
// their TotalNew counts.
type ImportLog struct {
	ID           string          `gorm:"type:text;primaryKey" json:"id"`
	SourceID     string          `gorm:"type:text;not null;index" json:"source_id"`
	Status       ImportLogStatus `gorm:"type:text;default:running" json:"status"`
	TotalFound   int             `gorm:"default:0" json:"total_found"`
	TotalNew     int             `gorm:"default:0" json:"total_new"`
	TotalSkipped int             `gorm:"default:0" json:"total_skipped"`
	TotalFailed  int             `gorm:"default:0" json:"total_failed"`
	Errors       StringArray     `gorm:"type:text" json:"errors"`
	SnapshotKey  string          `gorm:"type:text" json:"snapshot_key,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// TableName returns the database table name for ImportLog.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ImportLog) TableName() string {
	return "import_logs"
}
