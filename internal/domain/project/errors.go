package project

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrProjectNotFound  = fmt.Errorf("project not found: %w", gateway.ErrNotFound)
	ErrSlugExists       = fmt.Errorf("project slug already exists: %w", gateway.ErrConflict)
	ErrInvalidCoverFile = errors.New("cover must be a jpg, jpeg, png or webp image")
)
