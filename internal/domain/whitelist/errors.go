package whitelist

import (
	"fmt"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrEntryNotFound = fmt.Errorf("ip whitelist entry not found: %w", gateway.ErrNotFound)
	ErrEntryExists   = fmt.Errorf("ip address already whitelisted: %w", gateway.ErrConflict)
)
