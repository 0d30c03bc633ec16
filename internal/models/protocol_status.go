package models

// ProtocolStatus represents the per-user protocol flag
type ProtocolStatus string

const (
	// ProtocolActive means messages for the user are intercepted and quarantined
	ProtocolActive ProtocolStatus = "ACTIVE"
	// ProtocolInactive means messages for the user are forwarded normally.
	// Absence of a status row is equivalent to INACTIVE.
	ProtocolInactive ProtocolStatus = "INACTIVE"
)

// IsValid reports whether the status is a known protocol status
func (s ProtocolStatus) IsValid() bool {
	return s == ProtocolActive || s == ProtocolInactive
}

// UserProtocolStatus represents the USER_PROTOCOL_STATUS table
type UserProtocolStatus struct {
	UserID      string         `db:"USER_ID" json:"userId"`
	Status      ProtocolStatus `db:"STATUS" json:"status"`
	ActivatedBy string         `db:"ACTIVATED_BY" json:"activatedBy"`
	ActivatedAt *int64         `db:"ACTIVATED_AT" json:"activatedAt,omitempty"`
	Reason      *string        `db:"REASON" json:"reason,omitempty"`
	UpdatedAt   int64          `db:"UPDATED_AT" json:"updatedAt"`
}

// ProtocolActionRequest represents the payload for activate/deactivate operations
type ProtocolActionRequest struct {
	Action string `json:"action" form:"action" binding:"required"`
	Reason string `json:"reason" form:"reason"`
}

// ProtocolStatusResponse is the API representation of a user's protocol state
type ProtocolStatusResponse struct {
	UserID      string         `json:"userId"`
	Status      ProtocolStatus `json:"status"`
	ActivatedBy string         `json:"activatedBy,omitempty"`
	ActivatedAt *int64         `json:"activatedAt,omitempty"`
	Reason      *string        `json:"reason,omitempty"`
	UpdatedAt   int64          `json:"updatedAt"`
}

// ToResponse converts a status row to its API representation
func (u *UserProtocolStatus) ToResponse() *ProtocolStatusResponse {
	return &ProtocolStatusResponse{
		UserID:      u.UserID,
		Status:      u.Status,
		ActivatedBy: u.ActivatedBy,
		ActivatedAt: u.ActivatedAt,
		Reason:      u.Reason,
		UpdatedAt:   u.UpdatedAt,
	}
}
