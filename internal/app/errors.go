package service

import (
	"errors"

	"github.com/okian/cogtrain/internal/adapters/llm"
	"github.com/okian/cogtrain/internal/adapters/repository"
	"github.com/okian/cogtrain/internal/domain/model"
)

// Sentinel errors returned by the service. Callers map them with errors.Is.
var (
	ErrUnknownGame          = errors.New("unknown game")
	ErrBadRequest           = errors.New("bad request")
	ErrNotFound             = repository.ErrNotFound
	ErrGeneratorUnavailable = llm.ErrUnavailable
	ErrInvalidAction        = model.ErrInvalidAction
	ErrInvalidContext       = model.ErrInvalidContext
)
