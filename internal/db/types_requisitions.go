package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/recruitflow/recruitflow/internal/scoring"
)

// Requisition represents a job opening authored by an admin or hiring manager
type Requisition struct {
	ID               int64        `json:"id"`
	CreatedBy        int64        `json:"created_by"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Summary          string       `json:"summary,omitempty"`
	Category         string       `json:"category,omitempty"`
	Skills           StringArray  `json:"skills"`
	Qualifications   StringArray  `json:"qualifications"`
	Responsibilities StringArray  `json:"responsibilities"`
	MinExperience    int          `json:"min_experience"`
	KnockoutRules    RuleList     `json:"knockout_rules"`
	Weightings       WeightMap    `json:"weightings"`
	Questions        QuestionList `json:"questions"`              // embedded assessment pack
	TestPackID       *int64       `json:"test_pack_id,omitempty"` // reference to a shared pack
	IsActive         bool         `json:"is_active"`
	DeletedAt        *time.Time   `json:"deleted_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TestPack is a shared assessment pack referenced by requisitions
type TestPack struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Questions QuestionList `json:"questions"`
	CreatedAt time.Time    `json:"created_at"`
}

// Question is one multiple-choice question of an assessment pack. Correct is
// the designated answer, either an option index or an option letter ("B").
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct any      `json:"correct"`
	Weight  float64  `json:"weight,omitempty"`
}

// RuleList handles the JSONB knockout_rules column
type RuleList []scoring.KnockoutRule

// Scan implements the Scanner interface for RuleList
func (l *RuleList) Scan(src interface{}) error {
	if src == nil {
		*l = RuleList{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, l)
}

// Value implements the Valuer interface for RuleList
func (l RuleList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// ViolationList handles the JSONB knockout_rule_violations column
type ViolationList []scoring.Violation

// Scan implements the Scanner interface for ViolationList
func (l *ViolationList) Scan(src interface{}) error {
	if src == nil {
		*l = ViolationList{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, l)
}

// Value implements the Valuer interface for ViolationList
func (l ViolationList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// WeightMap handles the JSONB weightings column
type WeightMap scoring.Weightings

// Scan implements the Scanner interface for WeightMap
func (m *WeightMap) Scan(src interface{}) error {
	if src == nil {
		*m = WeightMap{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, m)
}

// Value implements the Valuer interface for WeightMap
func (m WeightMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// QuestionList handles the JSONB questions column
type QuestionList []Question

// Scan implements the Scanner interface for QuestionList
func (l *QuestionList) Scan(src interface{}) error {
	if src == nil {
		*l = QuestionList{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, l)
}

// Value implements the Valuer interface for QuestionList
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
