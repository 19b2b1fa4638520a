package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SourceType identifies the kind of external data source.
// Values include SourceTypeLever, SourceTypeLinkedIn, and SourceTypeGenericATS.
type SourceType string

const (
	SourceTypeLever      SourceType = "LEVER"
	SourceTypeLinkedIn   SourceType = "LINKEDIN"
	SourceTypeGenericATS SourceType = "GENERIC_ATS"
)

// QualityStatus is the coarse quality tier assigned by the scorer.
type QualityStatus string

const (
	QualityHigh     QualityStatus = "high"
	QualityMedium   QualityStatus = "medium"
	QualityLow      QualityStatus = "low"
	QualityUnscored QualityStatus = "unscored"
)

// SourceConfig is a custom type for storing JSON config in the database.
// Its contents are opaque to everything except the fetcher for the source's type.
type SourceConfig map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the config.
//   - error: non-nil if marshaling fails.
func (c SourceConfig) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (c *SourceConfig) Scan(value interface{}) error {
	if value == nil {
		*c = SourceConfig{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan SourceConfig")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, c)
}

// GetString returns a string value from the config, or empty when absent.
func (c SourceConfig) GetString(key string) string {
	if c == nil {
		return ""
	}
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// DataSource represents an external job data source and its quality state.
// Score is always written by a scoring pass together with ConversionRate and
// QualityStatus; it is never mutated on its own.
type DataSource struct {
	ID             string        `gorm:"type:text;primaryKey" json:"id"`
	Name           string        `gorm:"type:text;not null" json:"name"`
	Type           SourceType    `gorm:"type:text;not null;index" json:"type"`
	Config         SourceConfig  `gorm:"type:text" json:"config"`
	TotalImported  int           `gorm:"default:0" json:"total_imported"`
	LastFetched    int           `gorm:"default:0" json:"last_fetched"`
	WeeklyImported int           `gorm:"default:0" json:"weekly_imported"`
	ErrorCount     int           `gorm:"default:0" json:"error_count"`
	Score          int           `gorm:"default:0" json:"score"`
	ConversionRate float64       `gorm:"default:0" json:"conversion_rate"`
	QualityStatus  QualityStatus `gorm:"type:text;default:unscored" json:"quality_status"`
	IsActive       bool          `gorm:"default:true" json:"is_active"`
	Tags           StringArray   `gorm:"type:text" json:"tags"`
	LastScoreAt    *time.Time    `json:"last_score_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName returns the database table name for DataSource.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (DataSource) TableName() string {
	return "data_sources"
}
