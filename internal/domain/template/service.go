package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/emrforms/emrforms/internal/domain/schema"
	"github.com/emrforms/emrforms/internal/platform/metrics"
)

var (
	// ErrTemplateArchived rejects publish transitions on archived templates.
	ErrTemplateArchived = errors.New("template is archived")
	// ErrVersionNotFound signals a restore source missing from the ledger.
	ErrVersionNotFound = errors.New("version not found")
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetMetrics attaches optional domain counters to the service.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// sanitizeSchema runs the persistence pipeline: shape coercion, group
// lifting, editor-key stripping. Section codes are derived from the schema
// when the request omits them.
func sanitizeSchema(raw json.RawMessage, sections []string) (json.RawMessage, []string, error) {
	var sc schema.Schema
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sc); err != nil {
			return nil, nil, fmt.Errorf("invalid schema_json: %w", err)
		}
	}
	sc = schema.NormalizeGroups(schema.EnsureShape(sc))
	if len(sections) == 0 {
		sections = schema.SectionCodes(sc)
	}
	if len(sections) == 0 {
		return nil, nil, fmt.Errorf("at least one section is required")
	}

	b, err := json.Marshal(sc)
	if err != nil {
		return nil, nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, nil, err
	}
	out, err := json.Marshal(schema.StripEditorFields(doc))
	if err != nil {
		return nil, nil, err
	}
	return out, sections, nil
}

func statusFor(publish bool) Status {
	if publish {
		return StatusPublished
	}
	return StatusDraft
}

// Create validates the request, sanitizes the schema and writes the
// template with its v1 ledger entry.
func (s *Service) Create(ctx context.Context, req *CreateTemplateRequest, actor *string) (*Template, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.DeptCode == "" {
		return nil, fmt.Errorf("dept_code is required")
	}
	if req.RecordTypeCode == "" {
		return nil, fmt.Errorf("record_type_code is required")
	}
	sanitized, sections, err := sanitizeSchema(req.SchemaJSON, req.Sections)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Name:           req.Name,
		Description:    req.Description,
		DeptCode:       schema.NormalizeCode(req.DeptCode),
		RecordTypeCode: schema.NormalizeCode(req.RecordTypeCode),
		Tags:           req.Tags,
		IsActive:       req.IsActive,
		Status:         statusFor(req.Publish),
		Version:        1,
		SchemaJSON:     sanitized,
		Sections:       sections,
		UpdatedBy:      actor,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		v1 := &TemplateVersion{
			TemplateID: t.ID,
			V:          1,
			Status:     t.Status,
			Note:       "created",
			SchemaJSON: sanitized,
			Sections:   sections,
			CreatedBy:  actor,
		}
		return s.repo.AppendVersion(ctx, v1)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.TemplatesCreated.Inc()
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Template, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}

func (s *Service) Versions(ctx context.Context, id uuid.UUID) ([]*TemplateVersion, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, id)
}

func (s *Service) GetVersion(ctx context.Context, id uuid.UUID, v int) (*TemplateVersion, error) {
	entry, err := s.repo.GetVersion(ctx, id, v)
	if err != nil {
		return nil, ErrVersionNotFound
	}
	return entry, nil
}

// SaveVersion persists an edited schema. keep_same_version replaces the
// ledger entry for the current version; otherwise a strictly incrementing
// entry is appended and Template.Version moves with it.
func (s *Service) SaveVersion(ctx context.Context, id uuid.UUID, req *SaveVersionRequest, actor *string) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Publish && t.Status == StatusArchived {
		return nil, ErrTemplateArchived
	}
	sanitized, sections, err := sanitizeSchema(req.SchemaJSON, req.Sections)
	if err != nil {
		return nil, err
	}

	entry := &TemplateVersion{
		TemplateID: t.ID,
		SchemaJSON: sanitized,
		Sections:   sections,
		CreatedBy:  actor,
	}
	if req.KeepSameVersion {
		entry.V = t.Version
		entry.Note = req.Note
		if entry.Note == "" {
			entry.Note = "edited in place"
		}
		if req.Publish {
			t.Status = StatusPublished
		}
		entry.Status = t.Status
	} else {
		entry.V = t.Version + 1
		entry.Note = req.Note
		entry.Status = statusFor(req.Publish)
		t.Status = entry.Status
		t.Version = entry.V
	}
	t.SchemaJSON = sanitized
	t.Sections = sections
	t.UpdatedBy = actor

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		write := s.repo.AppendVersion
		if req.KeepSameVersion {
			write = s.repo.ReplaceVersion
		}
		if err := write(ctx, entry); err != nil {
			return err
		}
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.VersionsSaved.Inc()
	}
	return t, nil
}

// SetPublished toggles between DRAFT and PUBLISHED. The version number is
// untouched; the ledger entry for the current version is replaced with the
// new status.
func (s *Service) SetPublished(ctx context.Context, id uuid.UUID, publish bool, actor *string) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusArchived {
		return nil, ErrTemplateArchived
	}
	t.Status = statusFor(publish)
	t.UpdatedBy = actor

	note := "unpublished"
	if publish {
		note = "published"
	}
	entry := &TemplateVersion{
		TemplateID: t.ID,
		V:          t.Version,
		Status:     t.Status,
		Note:       note,
		SchemaJSON: t.SchemaJSON,
		Sections:   t.Sections,
		CreatedBy:  actor,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.ReplaceVersion(ctx, entry); err != nil {
			return err
		}
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Restore appends a new DRAFT version carrying the schema of ledger entry
// N. The restored entry gets current+1, never N itself.
func (s *Service) Restore(ctx context.Context, id uuid.UUID, fromVersion int, actor *string) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	src, err := s.repo.GetVersion(ctx, id, fromVersion)
	if err != nil {
		return nil, ErrVersionNotFound
	}

	entry := &TemplateVersion{
		TemplateID: t.ID,
		V:          t.Version + 1,
		Status:     StatusDraft,
		Note:       fmt.Sprintf("restored from v%d", fromVersion),
		SchemaJSON: src.SchemaJSON,
		Sections:   src.Sections,
		CreatedBy:  actor,
	}
	t.Version = entry.V
	t.Status = StatusDraft
	t.SchemaJSON = src.SchemaJSON
	t.Sections = src.Sections
	t.UpdatedBy = actor

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.AppendVersion(ctx, entry); err != nil {
			return err
		}
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Archive is a soft delete. Version and history stay untouched.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, actor *string) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = StatusArchived
	t.UpdatedBy = actor
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
