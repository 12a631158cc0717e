package template

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emrforms/emrforms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

const tmplCols = `id, name, description, dept_code, record_type_code, tags,
	premium, restricted, is_default, is_active, status, version,
	schema_json, sections, updated_by, created_at, updated_at`

func (r *repoPG) scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.DeptCode, &t.RecordTypeCode,
		&t.Tags, &t.Premium, &t.Restricted, &t.IsDefault, &t.IsActive,
		&t.Status, &t.Version, &t.SchemaJSON, &t.Sections,
		&t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO template (id, name, description, dept_code, record_type_code, tags,
			premium, restricted, is_default, is_active, status, version,
			schema_json, sections, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		t.ID, t.Name, t.Description, t.DeptCode, t.RecordTypeCode, t.Tags,
		t.Premium, t.Restricted, t.IsDefault, t.IsActive, t.Status, t.Version,
		t.SchemaJSON, t.Sections, t.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	return r.scanTemplate(r.conn(ctx).QueryRow(ctx, `SELECT `+tmplCols+` FROM template WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Template) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE template SET name=$2, description=$3, tags=$4, premium=$5, restricted=$6,
			is_default=$7, is_active=$8, status=$9, version=$10,
			schema_json=$11, sections=$12, updated_by=$13, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Tags, t.Premium, t.Restricted,
		t.IsDefault, t.IsActive, t.Status, t.Version,
		t.SchemaJSON, t.Sections, t.UpdatedBy)
	return err
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Template, int, error) {
	query := `SELECT ` + tmplCols + ` FROM template WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM template WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["dept_code"]; ok {
		query += fmt.Sprintf(` AND dept_code = $%d`, idx)
		countQuery += fmt.Sprintf(` AND dept_code = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["record_type_code"]; ok {
		query += fmt.Sprintf(` AND record_type_code = $%d`, idx)
		countQuery += fmt.Sprintf(` AND record_type_code = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, nil
}

const versionCols = `id, template_id, v, status, note, schema_json, sections, created_by, created_at`

func (r *repoPG) scanVersion(row pgx.Row) (*TemplateVersion, error) {
	var v TemplateVersion
	err := row.Scan(&v.ID, &v.TemplateID, &v.V, &v.Status, &v.Note,
		&v.SchemaJSON, &v.Sections, &v.CreatedBy, &v.CreatedAt)
	return &v, err
}

func (r *repoPG) AppendVersion(ctx context.Context, v *TemplateVersion) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO template_version (id, template_id, v, status, note, schema_json, sections, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.TemplateID, v.V, v.Status, v.Note, v.SchemaJSON, v.Sections, v.CreatedBy)
	return err
}

func (r *repoPG) ReplaceVersion(ctx context.Context, v *TemplateVersion) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO template_version (id, template_id, v, status, note, schema_json, sections, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (template_id, v) DO UPDATE SET
			status = EXCLUDED.status, note = EXCLUDED.note,
			schema_json = EXCLUDED.schema_json, sections = EXCLUDED.sections,
			created_by = EXCLUDED.created_by, created_at = NOW()`,
		v.ID, v.TemplateID, v.V, v.Status, v.Note, v.SchemaJSON, v.Sections, v.CreatedBy)
	return err
}

func (r *repoPG) GetVersion(ctx context.Context, templateID uuid.UUID, v int) (*TemplateVersion, error) {
	return r.scanVersion(r.conn(ctx).QueryRow(ctx,
		`SELECT `+versionCols+` FROM template_version WHERE template_id = $1 AND v = $2`, templateID, v))
}

func (r *repoPG) ListVersions(ctx context.Context, templateID uuid.UUID) ([]*TemplateVersion, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+versionCols+` FROM template_version WHERE template_id = $1 ORDER BY v ASC`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TemplateVersion
	for rows.Next() {
		v, err := r.scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}
