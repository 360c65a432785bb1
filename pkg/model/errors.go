package model

import "errors"

var (
	ErrInvalidDefinition = errors.New("model: invalid definition")
	ErrDuplicateModel    = errors.New("model: model already registered")
	ErrUnknownModel      = errors.New("model: unknown model")
	ErrUnknownRelation   = errors.New("model: unknown relation")
	ErrRelationKind      = errors.New("model: wrong relation kind")
	ErrRecordNotFound    = errors.New("model: record not found")
	ErrNotPersisted      = errors.New("model: record is not persisted")
)
