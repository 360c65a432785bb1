package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/mvc/pkg/query"
)

type relationKind int

const (
	belongsTo relationKind = iota + 1
	hasMany
)

func (k relationKind) String() string {
	if k == belongsTo {
		return "belongs-to"
	}
	return "has-many"
}

// Relation describes an association to another model. Build it with
// BelongsTo or HasMany.
type Relation struct {
	kind relationKind

	// Model is the related model name.
	Model string

	// ForeignKey is the column holding the reference: on the owner for
	// belongs-to ("author_id"), on the related table for has-many ("post_id").
	ForeignKey string

	// OwnerKey is the referenced column: the related primary key for
	// belongs-to, the owner primary key for has-many.
	OwnerKey string
}

// RelationOption customizes a Relation.
type RelationOption func(*Relation)

// Of sets the related model name.
func Of(model string) RelationOption {
	return func(r *Relation) { r.Model = model }
}

// ForeignKey sets the foreign key column.
func ForeignKey(col string) RelationOption {
	return func(r *Relation) { r.ForeignKey = col }
}

// OwnerKey sets the referenced column.
func OwnerKey(col string) RelationOption {
	return func(r *Relation) { r.OwnerKey = col }
}

// BelongsTo declares that the owner references one related record.
// By convention relation "author" targets model "Author" through the
// owner column "author_id".
func BelongsTo(opts ...RelationOption) Relation {
	r := Relation{kind: belongsTo}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// HasMany declares that related records reference the owner. By
// convention relation "comments" of model "Post" targets model "Comment"
// through its column "post_id".
func HasMany(opts ...RelationOption) Relation {
	r := Relation{kind: hasMany}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r Relation) withDefaults(owner Definition, name string) Relation {
	if r.kind == 0 {
		r.kind = belongsTo
	}
	if r.Model == "" {
		r.Model = modelName(name)
	}
	switch r.kind {
	case belongsTo:
		if r.ForeignKey == "" {
			r.ForeignKey = snake(name) + "_id"
		}
	case hasMany:
		if r.ForeignKey == "" {
			r.ForeignKey = foreignKey(owner.Name)
		}
		if r.OwnerKey == "" {
			r.OwnerKey = owner.PrimaryKey
		}
	}
	return r
}

// relation resolves a relation of m and its target model. A related name
// without namespace is looked up in the owner's namespace first.
func (m *Model) relation(name string) (Relation, *Model, error) {
	rel, ok := m.def.Relations[name]
	if !ok {
		return Relation{}, nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, m.def.Name, name)
	}

	target := rel.Model
	if ns := namespace(m.def.Name); ns != "" && namespace(target) == "" && m.store.has(ns+"."+target) {
		target = ns + "." + target
	}
	related, err := m.store.Model(target)
	if err != nil {
		return Relation{}, nil, fmt.Errorf("%w: %s.%s: %w", ErrUnknownRelation, m.def.Name, name, err)
	}
	if rel.kind == belongsTo && rel.OwnerKey == "" {
		rel.OwnerKey = related.def.PrimaryKey
	}
	return rel, related, nil
}

func (r *Record) relationOf(name string, kind relationKind) (Relation, *Model, error) {
	rel, related, err := r.model.relation(name)
	if err != nil {
		return rel, nil, err
	}
	if rel.kind != kind {
		return rel, nil, fmt.Errorf("%w: %s.%s is %s", ErrRelationKind, r.model.def.Name, name, rel.kind)
	}
	return rel, related, nil
}

// BelongsTo returns the record referenced by the named relation, or nil
// when the reference is empty or dangling. The result is cached until the
// record is modified.
func (r *Record) BelongsTo(ctx context.Context, name string) (*Record, error) {
	rel, related, err := r.relationOf(name, belongsTo)
	if err != nil {
		return nil, err
	}
	if v, ok := r.relations[name]; ok {
		rec, _ := v.(*Record)
		return rec, nil
	}

	var rec *Record
	if ref := r.data[rel.ForeignKey]; !isBlank(ref) {
		rec, err = related.FindBy(ctx, rel.OwnerKey, ref)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
	}
	r.relations[name] = rec
	return rec, nil
}

// HasMany returns an unexecuted query for the records of the named
// relation. The owner condition is a scope: it is AND-ed into every
// condition added later, so
//
//	post.HasMany("comments").Where("approved = ?", 1).Where("author_id = ?", 7)
//
// selects approved comments of the post OR comments of the post by author 7.
func (r *Record) HasMany(name string) (*query.Builder[*Record], error) {
	rel, related, err := r.relationOf(name, hasMany)
	if err != nil {
		return nil, err
	}
	return related.Select().Scope(rel.ForeignKey+" = ?", r.data[rel.OwnerKey]), nil
}

// Records fetches every record of a has-many relation. The result is cached
// until the record is modified.
func (r *Record) Records(ctx context.Context, name string) ([]*Record, error) {
	q, err := r.HasMany(name)
	if err != nil {
		return nil, err
	}
	if v, ok := r.relations[name]; ok {
		if recs, ok := v.([]*Record); ok {
			return recs, nil
		}
	}
	recs, err := q.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	r.relations[name] = recs
	return recs, nil
}
