package template

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the template lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Template maps to the template table. Version always equals the v of the
// most recently appended or replaced ledger entry.
type Template struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description,omitempty"`
	DeptCode       string          `db:"dept_code" json:"dept_code"`
	RecordTypeCode string          `db:"record_type_code" json:"record_type_code"`
	Tags           []string        `db:"tags" json:"tags"`
	Premium        bool            `db:"premium" json:"premium"`
	Restricted     bool            `db:"restricted" json:"restricted"`
	IsDefault      bool            `db:"is_default" json:"is_default"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	Status         Status          `db:"status" json:"status"`
	Version        int             `db:"version" json:"version"`
	SchemaJSON     json.RawMessage `db:"schema_json" json:"schema_json,omitempty"`
	Sections       []string        `db:"sections" json:"sections"`
	UpdatedBy      *string         `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// TemplateVersion maps to the template_version table. Entries are
// append-only except under the keep-same-version replace policy, which
// overwrites the entry whose V equals the template's current version.
type TemplateVersion struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	TemplateID uuid.UUID       `db:"template_id" json:"template_id"`
	V          int             `db:"v" json:"v"`
	Status     Status          `db:"status" json:"status"`
	Note       string          `db:"note" json:"note"`
	SchemaJSON json.RawMessage `db:"schema_json" json:"schema_json,omitempty"`
	Sections   []string        `db:"sections" json:"sections"`
	CreatedBy  *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type CreateTemplateRequest struct {
	Name           string          `json:"name"`
	DeptCode       string          `json:"dept_code"`
	RecordTypeCode string          `json:"record_type_code"`
	Description    *string         `json:"description,omitempty"`
	Tags           []string        `json:"tags"`
	IsActive       bool            `json:"is_active"`
	SchemaJSON     json.RawMessage `json:"schema_json"`
	Sections       []string        `json:"sections"`
	Publish        bool            `json:"publish"`
}

type SaveVersionRequest struct {
	SchemaJSON      json.RawMessage `json:"schema_json"`
	Sections        []string        `json:"sections"`
	Publish         bool            `json:"publish"`
	KeepSameVersion bool            `json:"keep_same_version,omitempty"`
	Note            string          `json:"note,omitempty"`
}

type PublishRequest struct {
	Publish bool `json:"publish"`
}

type RestoreRequest struct {
	FromVersion int `json:"from_version"`
}
