package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emrforms/emrforms/internal/domain/schema"
)

// PackFile is the on-disk declaration of a custom pack. Field declarations
// cover the subset of the schema model that hand-authored packs need.
type PackFile struct {
	ID           string      `yaml:"id"`
	Label        string      `yaml:"label"`
	SectionCode  string      `yaml:"section_code"`
	SectionLabel string      `yaml:"section_label"`
	Fields       []FieldDecl `yaml:"fields"`
}

type FieldDecl struct {
	Type     string       `yaml:"type"`
	Key      string       `yaml:"key"`
	Label    string       `yaml:"label"`
	Required bool         `yaml:"required"`
	HelpText string       `yaml:"help_text"`
	Options  []OptionDecl `yaml:"options"`
	Columns  []ColumnDecl `yaml:"columns"`
	Fields   []FieldDecl  `yaml:"fields"`
	VisibleWhen *RuleDecl `yaml:"visible_when"`
}

type OptionDecl struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type ColumnDecl struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type RuleDecl struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// Validate rejects declarations the schema model cannot represent.
func (f *PackFile) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("pack id is required")
	}
	if f.SectionCode == "" {
		return fmt.Errorf("pack %s: section_code is required", f.ID)
	}
	if len(f.Fields) == 0 {
		return fmt.Errorf("pack %s: at least one field is required", f.ID)
	}
	return validateFields(f.ID, f.Fields)
}

func validateFields(packID string, fields []FieldDecl) error {
	for _, fd := range fields {
		if fd.Key == "" {
			return fmt.Errorf("pack %s: field key is required", packID)
		}
		t := schema.FieldType(fd.Type)
		if !t.Valid() {
			return fmt.Errorf("pack %s: field %s: unknown type %q", packID, fd.Key, fd.Type)
		}
		if fd.VisibleWhen != nil {
			op := schema.RuleOp(fd.VisibleWhen.Op)
			if op != schema.OpEq && op != schema.OpNeq {
				return fmt.Errorf("pack %s: field %s: unknown rule op %q", packID, fd.Key, fd.VisibleWhen.Op)
			}
		}
		if t == schema.FieldGroup {
			if err := validateFields(packID, fd.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func (fd FieldDecl) toItem() schema.Item {
	it := schema.Item{
		Type:     schema.FieldType(fd.Type),
		Key:      schema.NormalizeKey(fd.Key),
		Label:    fd.Label,
		Required: fd.Required,
		HelpText: fd.HelpText,
	}
	if fd.VisibleWhen != nil {
		it.Rules = &schema.Rules{
			VisibleWhen: &schema.VisibilityRule{
				FieldKey: fd.VisibleWhen.Field,
				Op:       schema.RuleOp(fd.VisibleWhen.Op),
				Value:    fd.VisibleWhen.Value,
			},
		}
	}
	if len(fd.Options) > 0 {
		for _, o := range fd.Options {
			it.Options = append(it.Options, schema.Option{Value: o.Value, Label: o.Label})
		}
		it.Choice = &schema.ChoiceConfig{Display: "dropdown"}
	}
	if it.Type == schema.FieldTable {
		cols := make([]schema.TableColumn, 0, len(fd.Columns))
		for _, cd := range fd.Columns {
			cols = append(cols, schema.TableColumn{
				Key:      schema.NormalizeKey(cd.Key),
				Label:    cd.Label,
				Type:     schema.FieldType(cd.Type),
				Required: cd.Required,
			})
		}
		it.Table = &schema.TableConfig{Columns: cols, AllowAdd: true, AllowRemove: true}
	}
	if it.Type == schema.FieldGroup {
		children := make([]schema.Item, 0, len(fd.Fields))
		for _, child := range fd.Fields {
			children = append(children, child.toItem())
		}
		it.Group = &schema.GroupConfig{Layout: schema.LayoutStack, Items: children}
	}
	return it
}

// ToPack compiles the declaration into an applicable pack.
func (f *PackFile) ToPack() Pack {
	decl := *f
	return Pack{
		ID:    decl.ID,
		Label: decl.Label,
		Apply: func(s schema.Schema) (schema.Schema, string) {
			label := decl.SectionLabel
			if label == "" {
				label = decl.SectionCode
			}
			s, idx := ensureSection(s, decl.SectionCode, label)
			fields := make([]schema.Item, 0, len(decl.Fields))
			for _, fd := range decl.Fields {
				fields = append(fields, fd.toItem())
			}
			return appendFields(s, idx, fields), schema.NormalizeCode(decl.SectionCode)
		},
	}
}

// ParsePackFile decodes and validates a single YAML declaration.
func ParsePackFile(data []byte) (*PackFile, error) {
	var f PackFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing pack file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadDir registers every .yaml/.yml pack under dir, in filename order.
// A missing directory is not an error.
func LoadDir(r *Registry, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return loaded, err
		}
		f, err := ParsePackFile(data)
		if err != nil {
			return loaded, fmt.Errorf("%s: %w", name, err)
		}
		r.Register(f.ToPack())
		loaded++
	}
	return loaded, nil
}
