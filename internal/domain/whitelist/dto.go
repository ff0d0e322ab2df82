package whitelist

import (
	"strings"

	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

type CreateEntryRequest struct {
	IPAddress string  `json:"ip_address"`
	Label     *string `json:"label,omitempty"`
}

func (r *CreateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	r.IPAddress = strings.TrimSpace(r.IPAddress)
	errs.Required("ip_address", r.IPAddress)
	if r.IPAddress != "" && !validator.IsValidIP(r.IPAddress) {
		errs.Add("ip_address", "ip_address must be a valid IPv4 or IPv6 address")
	}
	if r.Label != nil && len(*r.Label) > 100 {
		errs.Add("label", "label must not exceed 100 characters")
	}

	return errs.Err()
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (r *SetActiveRequest) Validate() error {
	if r.IsActive == nil {
		return validator.ValidationErrors{{Field: "is_active", Message: "is_active is required"}}
	}
	return nil
}

type EntryResponse struct {
	ID        string  `json:"id"`
	IPAddress string  `json:"ip_address"`
	Label     *string `json:"label,omitempty"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}
