package template

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// InTx runs fn atomically. Writes issued through the context fn
	// receives land in one transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Template, int, error)
	// Versions
	AppendVersion(ctx context.Context, v *TemplateVersion) error
	// ReplaceVersion overwrites the entry with the same (template_id, v)
	// when present, else inserts it.
	ReplaceVersion(ctx context.Context, v *TemplateVersion) error
	GetVersion(ctx context.Context, templateID uuid.UUID, v int) (*TemplateVersion, error)
	ListVersions(ctx context.Context, templateID uuid.UUID) ([]*TemplateVersion, error)
}
