package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidProfile   = errors.New("invalid brand profile")
)
