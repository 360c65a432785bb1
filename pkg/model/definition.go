package model

import (
	"context"
	"fmt"
)

// Definition describes a model: its table, validations, relations and
// persistence filters. Definitions are registered with a Store at boot.
type Definition struct {
	// Name identifies the model, optionally namespaced as "Blog.Post".
	Name string

	// Table defaults to the snake-cased plural of Name ("posts"). It may
	// contain the {prefix} token.
	Table string

	// PrimaryKey defaults to "id".
	PrimaryKey string

	// Connection names the registry connection; empty means the default.
	Connection string

	// Timestamps stamps created_at on insert and updated_at on every save.
	Timestamps bool

	Validations []Validation
	Relations   map[string]Relation
	Filters     Filters
}

// Validation binds rules to a field. Rules run in order.
type Validation struct {
	Field string
	Rules []Rule
}

// Validate is shorthand for a Validation literal.
func Validate(field string, rules ...Rule) Validation {
	return Validation{Field: field, Rules: rules}
}

// Filter runs around persistence. An error returned by a before filter
// aborts the operation.
type Filter func(ctx context.Context, r *Record) error

// Filters lists persistence callbacks. Before/AfterCreate run for new
// records, Before/AfterSave for persisted ones.
type Filters struct {
	BeforeCreate []Filter
	BeforeSave   []Filter
	AfterCreate  []Filter
	AfterSave    []Filter
	AfterDelete  []Filter
}

const (
	CreatedAt = "created_at"
	UpdatedAt = "updated_at"
)

func (d Definition) normalize() (*Definition, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if d.Table == "" {
		d.Table = tableName(d.Name)
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = "id"
	}
	for _, v := range d.Validations {
		if v.Field == "" {
			return nil, fmt.Errorf("%w: %s: validation without field", ErrInvalidDefinition, d.Name)
		}
	}

	relations := make(map[string]Relation, len(d.Relations))
	for name, rel := range d.Relations {
		if name == "" {
			return nil, fmt.Errorf("%w: %s: unnamed relation", ErrInvalidDefinition, d.Name)
		}
		relations[name] = rel.withDefaults(d, name)
	}
	d.Relations = relations

	if d.Timestamps {
		f := d.Filters
		f.BeforeCreate = append([]Filter{stampCreated}, f.BeforeCreate...)
		f.BeforeSave = append([]Filter{stampUpdated}, f.BeforeSave...)
		d.Filters = f
	}
	return &d, nil
}

func stampCreated(_ context.Context, r *Record) error {
	now := r.model.store.Now()
	r.data[CreatedAt] = now
	r.data[UpdatedAt] = now
	return nil
}

func stampUpdated(_ context.Context, r *Record) error {
	r.data[UpdatedAt] = r.model.store.Now()
	return nil
}
