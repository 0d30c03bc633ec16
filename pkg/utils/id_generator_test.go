package utils

import (
	"strings"
	"testing"
)

func TestGenerateIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("GenerateID produced duplicate: %s", id)
		}
		seen[id] = true
		if !IsValidUUID(id) {
			t.Errorf("GenerateID produced invalid UUID: %s", id)
		}
	}
}

func TestPrefixedIDs(t *testing.T) {
	tests := []struct {
		name     string
		generate func() string
		prefix   string
	}{
		{"Quarantine ID", GenerateQuarantineID, "QMSG-"},
		{"Audit ID", GenerateAuditID, "AUDIT-"},
		{"Batch ID", GenerateBatchID, "BATCH-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.generate()
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("%s = %q, want prefix %q", tt.name, id, tt.prefix)
			}
			if !IsValidUUID(strings.TrimPrefix(id, tt.prefix)) {
				t.Errorf("%s = %q, suffix is not a valid UUID", tt.name, id)
			}
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	if !IsValidUUID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("IsValidUUID rejected a valid UUID")
	}
	if IsValidUUID("not-a-uuid") {
		t.Error("IsValidUUID accepted a malformed string")
	}
	if IsValidUUID("") {
		t.Error("IsValidUUID accepted an empty string")
	}
}
