package model

import (
	"context"
	"maps"
	"net/mail"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrymomot/mvc/pkg/i18n"
)

// Rule kinds of the built-in validations.
const (
	KindRequired  = "required"
	KindEmail     = "email"
	KindMinLength = "min_length"
	KindMaxLength = "max_length"
	KindNumeric   = "numeric"
	KindUnique    = "unique"
)

// BaseField collects errors not tied to a single field.
const BaseField = "base"

// Rule is a named validation. Check returns a non-nil Failure when the
// field is invalid; an error means the check itself could not run.
type Rule struct {
	Kind  string
	Check func(ctx context.Context, r *Record, field string) (*Failure, error)
}

// Failure describes why a rule rejected a field. Key is a translation key;
// Data holds extra placeholder values besides {{field}}.
type Failure struct {
	Key  string
	Data map[string]any
}

// FieldError is one recorded validation error.
type FieldError struct {
	Field             string         `json:"field"`
	Kind              string         `json:"kind"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"-"`
	TranslationValues map[string]any `json:"-"`
}

// Errors maps fields to their validation errors.
type Errors map[string][]FieldError

// Add records e under its field.
func (e Errors) Add(fe FieldError) {
	e[fe.Field] = append(e[fe.Field], fe)
}

// Has reports whether field has errors.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Kinds returns the failed rule kinds of field, in rule order.
func (e Errors) Kinds(field string) []string {
	kinds := make([]string, len(e[field]))
	for i, fe := range e[field] {
		kinds[i] = fe.Kind
	}
	return kinds
}

// Fields returns the fields with errors in sorted order.
func (e Errors) Fields() []string {
	return slices.Sorted(maps.Keys(e))
}

// Messages returns the messages per field.
func (e Errors) Messages() map[string][]string {
	out := make(map[string][]string, len(e))
	for field, errs := range e {
		for _, fe := range errs {
			out[field] = append(out[field], fe.Message)
		}
	}
	return out
}

// Translate re-renders every message with fn, e.g. the translator of the
// current request. Messages fn cannot translate are kept.
func (e Errors) Translate(fn TranslateFunc) {
	if fn == nil {
		return
	}
	for field, errs := range e {
		for i, fe := range errs {
			if fe.TranslationKey == "" {
				continue
			}
			if msg := fn(fe.TranslationKey, fe.TranslationValues); msg != fe.TranslationKey {
				errs[i].Message = msg
			}
		}
		e[field] = errs
	}
}

var defaultMessages = map[string]string{
	"validation.required":   "{{field}} is required",
	"validation.email":      "{{field}} must be a valid email address",
	"validation.min_length": "{{field}} must be at least {{min}} characters long",
	"validation.max_length": "{{field}} must be at most {{max}} characters long",
	"validation.numeric":    "{{field}} must be a number",
	"validation.unique":     "{{field}} has already been taken",
}

func (s *Store) message(key string, vars map[string]any) string {
	if s.translate != nil {
		if msg := s.translate(key, vars); msg != key {
			return msg
		}
	}
	if tmpl, ok := defaultMessages[key]; ok {
		return i18n.Interpolate(tmpl, vars)
	}
	return key
}

// Required rejects nil, blank strings and empty collections.
func Required() Rule {
	return Rule{Kind: KindRequired, Check: func(_ context.Context, r *Record, field string) (*Failure, error) {
		if isEmpty(r.data[field]) {
			return &Failure{Key: "validation.required"}, nil
		}
		return nil, nil
	}}
}

// Email rejects values that are not a bare email address. Empty values
// pass; combine with Required.
func Email() Rule {
	return Rule{Kind: KindEmail, Check: func(_ context.Context, r *Record, field string) (*Failure, error) {
		s := r.Text(field)
		if s == "" {
			return nil, nil
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndexByte(s, '@')+1:], ".") {
			return &Failure{Key: "validation.email"}, nil
		}
		return nil, nil
	}}
}

// MinLength rejects strings shorter than n characters. Empty values pass.
func MinLength(n int) Rule {
	return Rule{Kind: KindMinLength, Check: func(_ context.Context, r *Record, field string) (*Failure, error) {
		s := r.Text(field)
		if s != "" && utf8.RuneCountInString(s) < n {
			return &Failure{Key: "validation.min_length", Data: map[string]any{"min": n}}, nil
		}
		return nil, nil
	}}
}

// MaxLength rejects strings longer than n characters.
func MaxLength(n int) Rule {
	return Rule{Kind: KindMaxLength, Check: func(_ context.Context, r *Record, field string) (*Failure, error) {
		if utf8.RuneCountInString(r.Text(field)) > n {
			return &Failure{Key: "validation.max_length", Data: map[string]any{"max": n}}, nil
		}
		return nil, nil
	}}
}

// Numeric rejects values that are neither numbers nor numeric strings.
// Empty values pass.
func Numeric() Rule {
	return Rule{Kind: KindNumeric, Check: func(_ context.Context, r *Record, field string) (*Failure, error) {
		switch r.data[field].(type) {
		case nil:
			return nil, nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return nil, nil
		default:
			s := strings.TrimSpace(r.Text(field))
			if s == "" {
				return nil, nil
			}
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return &Failure{Key: "validation.numeric"}, nil
			}
			return nil, nil
		}
	}}
}

// Unique rejects a value already stored in another row. The check is
// advisory: a unique index is still needed, and a duplicate-key error
// raised by it during Save is reported as the same validation error.
func Unique() Rule {
	return Rule{Kind: KindUnique, Check: func(ctx context.Context, r *Record, field string) (*Failure, error) {
		v := r.data[field]
		if isEmpty(v) {
			return nil, nil
		}

		m := r.model
		q := m.conn.Select("COUNT(*) AS n").From(m.def.Table).Where(field+" = ?", v)
		if id := r.ID(); !r.isNew && !isBlank(id) {
			q.MergeNextWhere(true).Where(m.def.PrimaryKey+" <> ?", id)
		}

		row, err := q.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		n, err := toInt64(row["n"])
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return &Failure{Key: "validation.unique"}, nil
		}
		return nil, nil
	}}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
