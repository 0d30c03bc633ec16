package models

// QuarantineStatus represents the lifecycle state of a quarantined message
type QuarantineStatus string

const (
	// QuarantineStatusQuarantined means the message is held awaiting review
	QuarantineStatusQuarantined QuarantineStatus = "quarantined"
	// QuarantineStatusProcessed means an operator released the message
	QuarantineStatusProcessed QuarantineStatus = "processed"
	// QuarantineStatusDeleted means an operator discarded the message
	QuarantineStatusDeleted QuarantineStatus = "deleted"
	// QuarantineStatusExpired means the retention window elapsed before review
	QuarantineStatusExpired QuarantineStatus = "expired"
)

// IsTerminal reports whether the status is a terminal lifecycle state
func (s QuarantineStatus) IsTerminal() bool {
	return s == QuarantineStatusProcessed || s == QuarantineStatusDeleted || s == QuarantineStatusExpired
}

// QuarantineMessage represents the QUARANTINE_MESSAGE table
type QuarantineMessage struct {
	ID               string           `db:"QUARANTINE_ID" json:"id"`
	UserID           string           `db:"USER_ID" json:"userId"`
	MessageID        string           `db:"MESSAGE_ID" json:"messageId"`
	MessageText      string           `db:"MESSAGE_TEXT" json:"messageText"`
	SourceMessageRef *string          `db:"SOURCE_MESSAGE_REF" json:"sourceMessageRef,omitempty"`
	CostSaved        float64          `db:"COST_SAVED" json:"costSaved"`
	CreatedAt        int64            `db:"CREATED_AT" json:"createdAt"`
	ProcessedAt      *int64           `db:"PROCESSED_AT" json:"processedAt,omitempty"`
	ProcessedBy      *string          `db:"PROCESSED_BY" json:"processedBy,omitempty"`
	Status           QuarantineStatus `db:"STATUS" json:"status"`
}

// AdmitRequest represents the message admission payload from the ingestion path
type AdmitRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	MessageID   string `json:"message_id" binding:"required"`
	MessageText string `json:"message_text"`
	SourceRef   string `json:"source_ref"`
}

// Admission decisions returned to the ingestion path
const (
	DecisionForward     = "forward"
	DecisionQuarantined = "quarantined"
)

// AdmitResponse represents the admission decision
type AdmitResponse struct {
	Decision     string `json:"decision"`
	QuarantineID string `json:"quarantine_id,omitempty"`
}

// Batch actions accepted by the batch processor
const (
	BatchActionProcess              = "process"
	BatchActionDelete               = "delete"
	BatchActionProcessAndDeactivate = "process_and_deactivate"
)

// BatchProcessRequest represents the payload for bulk quarantine operations
type BatchProcessRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Action string   `json:"action" binding:"required"`
}

// BatchItemError reports a single failed item in a batch operation
type BatchItemError struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchProcessResult is the full partition of batch outcomes. The
// deactivation fields are populated only for process_and_deactivate, one
// entry per distinct user, so the operator can see which users remain
// ACTIVE after a failed deactivation.
type BatchProcessResult struct {
	BatchID            string           `json:"batchId"`
	Processed          []string         `json:"processed"`
	Failed             []BatchItemError `json:"failed"`
	Deactivated        []string         `json:"deactivated,omitempty"`
	DeactivationFailed []string         `json:"deactivationFailed,omitempty"`
}
