package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Job represents a normalized job posting produced by the import pipeline.
// SourceURL carries a unique index and is the primary deduplication key: a
// posting already present by SourceURL is skipped, never recreated.
type Job struct {
	ID           string      `gorm:"type:text;primaryKey" json:"id"`
	Slug         string      `gorm:"type:text;index:idx_jobs_slug" json:"slug"`
	SourceType   SourceType  `gorm:"type:text;not null;index" json:"source_type"`
	SourceURL    string      `gorm:"type:text;not null;uniqueIndex:idx_jobs_source_url" json:"source_url"`
	Title        string      `gorm:"type:text;not null" json:"title"`
	Company      string      `gorm:"type:text" json:"company"`
	Description  string      `gorm:"type:text" json:"description"`
	Summary      StringArray `gorm:"type:text" json:"summary"`
	Requirements StringArray `gorm:"type:text" json:"requirements"`
	Benefits     StringArray `gorm:"type:text" json:"benefits"`
	Skills       StringArray `gorm:"type:text" json:"skills"`
	SalaryMin    int         `gorm:"default:0" json:"salary_min"`
	SalaryMax    int         `gorm:"default:0" json:"salary_max"`
	Level        string      `gorm:"type:text" json:"level"`
	Location     string      `gorm:"type:text" json:"location"`
	Country      string      `gorm:"type:text" json:"country"`
	Category     string      `gorm:"type:text;index:idx_jobs_category" json:"category"`
	IsActive     bool        `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Job.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Job) TableName() string {
	return "jobs"
}
