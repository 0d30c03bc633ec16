package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AuditAction represents the kind of state transition recorded in an audit entry
type AuditAction string

const (
	AuditActionActivate   AuditAction = "ACTIVATE"
	AuditActionDeactivate AuditAction = "DEACTIVATE"
	AuditActionQuarantine AuditAction = "QUARANTINE"
	AuditActionProcess    AuditAction = "PROCESS"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionExpire     AuditAction = "EXPIRE"
)

// IsValid reports whether the action is a known audit action
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionActivate, AuditActionDeactivate, AuditActionQuarantine,
		AuditActionProcess, AuditActionDelete, AuditActionExpire:
		return true
	}
	return false
}

// ProtocolAuditEntry represents the PROTOCOL_AUDIT_LOG table.
// Entries are append-only; no component updates or deletes them.
type ProtocolAuditEntry struct {
	ID          string      `db:"AUDIT_ID" json:"id"`
	UserID      string      `db:"USER_ID" json:"userId"`
	Action      AuditAction `db:"ACTION" json:"action"`
	PerformedBy string      `db:"PERFORMED_BY" json:"performedBy"`
	Reason      *string     `db:"REASON" json:"reason,omitempty"`
	Timestamp   int64       `db:"ACTION_TIME" json:"timestamp"`
	Metadata    JSON        `db:"METADATA" json:"metadata,omitempty"`
}

// AuditQueryFilter narrows audit log queries
type AuditQueryFilter struct {
	UserID string
	Action AuditAction
	Since  int64
}

// JSON type for handling JSON fields in MySQL
type JSON json.RawMessage

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}

	var temp interface{}
	if err := json.Unmarshal(bytes, &temp); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}

	cleanBytes, err := json.Marshal(temp)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	*j = JSON(cleanBytes)
	return nil
}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON implements json.Marshaler
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// AuditMetadata builds the structured metadata payload for an audit entry
func AuditMetadata(fields map[string]interface{}) JSON {
	if len(fields) == 0 {
		return nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return JSON(data)
}
