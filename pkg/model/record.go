package model

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/mvc/pkg/db"
)

// Record is one row of a model. It is not safe for concurrent use.
type Record struct {
	model     *Model
	data      map[string]any
	isNew     bool
	errors    Errors
	relations map[string]any
}

// Model returns the record's model.
func (r *Record) Model() *Model { return r.model }

// IsNew reports whether the record has not been inserted yet.
func (r *Record) IsNew() bool { return r.isNew }

// ID returns the primary key value, nil while unset.
func (r *Record) ID() any { return r.data[r.model.def.PrimaryKey] }

// Get returns the value of field.
func (r *Record) Get(field string) any { return r.data[field] }

// Text returns field formatted as a string; nil is "".
func (r *Record) Text(field string) string {
	switch v := r.data[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Set assigns field and drops cached relations.
func (r *Record) Set(field string, v any) *Record {
	r.data[field] = v
	clear(r.relations)
	return r
}

// Fill assigns every entry of data.
func (r *Record) Fill(data map[string]any) *Record {
	maps.Copy(r.data, data)
	clear(r.relations)
	return r
}

// Data returns a copy of the record fields.
func (r *Record) Data() map[string]any {
	return maps.Clone(r.data)
}

// Errors returns the validation errors of the last Validates or Save.
func (r *Record) Errors() Errors { return r.errors }

// ErrorMessages returns the translated error messages per field.
func (r *Record) ErrorMessages() map[string][]string {
	return r.errors.Messages()
}

// Validates runs every configured rule and reports whether all passed.
// Previous errors are discarded. An error is returned only when a rule
// could not run, e.g. a uniqueness query failed.
func (r *Record) Validates(ctx context.Context) (bool, error) {
	r.errors = make(Errors)
	for _, v := range r.model.def.Validations {
		for _, rule := range v.Rules {
			if rule.Check == nil {
				continue
			}
			fail, err := rule.Check(ctx, r, v.Field)
			if err != nil {
				return false, fmt.Errorf("model %s: validate %s: %w", r.model.def.Name, v.Field, err)
			}
			if fail != nil {
				r.addError(v.Field, rule.Kind, fail)
			}
		}
	}
	return len(r.errors) == 0, nil
}

func (r *Record) addError(field, kind string, fail *Failure) {
	vars := map[string]any{"field": field}
	maps.Copy(vars, fail.Data)
	r.errors.Add(FieldError{
		Field:             field,
		Kind:              kind,
		Message:           r.model.store.message(fail.Key, vars),
		TranslationKey:    fail.Key,
		TranslationValues: vars,
	})
}

// Save validates the record and inserts or updates it. It returns false
// without touching the database when validation fails, and false with a
// "unique" error when the store rejects a duplicate key. Only columns of
// the table schema are written.
func (r *Record) Save(ctx context.Context) (bool, error) {
	ok, err := r.Validates(ctx)
	if err != nil || !ok {
		return false, err
	}

	f := r.model.def.Filters
	before, after := f.BeforeSave, f.AfterSave
	if r.isNew {
		before, after = f.BeforeCreate, f.AfterCreate
	}
	if err := runFilters(ctx, r, before); err != nil {
		return false, err
	}

	values, err := r.columns(ctx)
	if err != nil {
		return false, err
	}

	if r.isNew {
		err = r.insert(ctx, values)
	} else {
		err = r.update(ctx, values)
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			r.addError(r.uniqueField(err), KindUnique, &Failure{Key: "validation.unique"})
			return false, nil
		}
		return false, err
	}

	if err := runFilters(ctx, r, after); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Record) insert(ctx context.Context, values map[string]any) error {
	pk := r.model.def.PrimaryKey
	if isBlank(values[pk]) {
		delete(values, pk)
	}

	m := r.model
	stmt, err := m.conn.Insert(values).Into(m.def.Table).Exec(ctx)
	if err != nil {
		return err
	}
	if _, ok := values[pk]; !ok {
		r.data[pk] = stmt.LastInsertID()
	}
	r.isNew = false
	return nil
}

func (r *Record) update(ctx context.Context, values map[string]any) error {
	m := r.model
	pk := m.def.PrimaryKey
	id := r.data[pk]
	if isBlank(id) {
		return fmt.Errorf("%w: %s", ErrNotPersisted, m.def.Name)
	}
	delete(values, pk)
	if len(values) == 0 {
		return nil
	}

	_, err := m.conn.Update(m.def.Table).Set(values).Where(pk+" = ?", id).Limit(1).Exec(ctx)
	return err
}

// Delete removes the record by primary key, one row at most. After-delete
// filters run only when a row was removed.
func (r *Record) Delete(ctx context.Context) (bool, error) {
	m := r.model
	pk := m.def.PrimaryKey
	id := r.data[pk]
	if r.isNew || isBlank(id) {
		return false, fmt.Errorf("%w: %s", ErrNotPersisted, m.def.Name)
	}

	n, err := m.conn.Delete().From(m.def.Table).Where(pk+" = ?", id).Limit(1).RowCount(ctx)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, runFilters(ctx, r, m.def.Filters.AfterDelete)
}

// columns returns the record fields that exist in the table.
func (r *Record) columns(ctx context.Context) (map[string]any, error) {
	cols, err := r.model.Schema(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := r.data[c.Name]; ok {
			values[c.Name] = v
		}
	}
	return values, nil
}

// uniqueField guesses which column a duplicate-key error is about.
func (r *Record) uniqueField(err error) string {
	var fields []string
	for _, v := range r.model.def.Validations {
		if slices.ContainsFunc(v.Rules, func(rule Rule) bool { return rule.Kind == KindUnique }) {
			fields = append(fields, v.Field)
		}
	}
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, "."+f) || strings.Contains(msg, "'"+f+"'") {
			return f
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return BaseField
}

func runFilters(ctx context.Context, r *Record, filters []Filter) error {
	for _, fn := range filters {
		if err := fn(ctx, r); err != nil {
			return fmt.Errorf("model %s: %w", r.model.def.Name, err)
		}
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(t).IsZero()
	}
	return false
}

// toInt64 converts driver integers and numeric strings.
func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	}
	return 0, errors.New("model: not an integer")
}
