package employee

import (
	"errors"
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrEmployeeNotFound   = fmt.Errorf("employee not found: %w", gateway.ErrNotFound)
	ErrEmployeeCodeExists = fmt.Errorf("employee ID already exists: %w", gateway.ErrConflict)
	ErrEmailExists        = fmt.Errorf("email already registered: %w", gateway.ErrConflict)
	ErrEmployeeInUse      = fmt.Errorf("employee still has attendance, leave or payroll records: %w", gateway.ErrConflict)
	ErrSupervisorNotFound = errors.New("supervisor not found")
	ErrSupervisorCycle    = errors.New("supervisor assignment would create a reporting cycle")
	ErrInvalidCVFile      = errors.New("invalid CV file: only pdf, doc, docx allowed")
)
