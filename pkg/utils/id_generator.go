package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for generic identifiers
func GenerateID() string {
	return uuid.New().String()
}

// GenerateQuarantineID generates a unique quarantine message ID
func GenerateQuarantineID() string {
	return "QMSG-" + uuid.New().String()
}

// GenerateAuditID generates a unique audit entry ID
func GenerateAuditID() string {
	return "AUDIT-" + uuid.New().String()
}

// GenerateBatchID generates a unique batch operation ID
func GenerateBatchID() string {
	return "BATCH-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
