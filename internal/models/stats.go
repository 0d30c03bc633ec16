package models

// StatsSnapshot holds the operator-facing aggregate view of the subsystem.
// Every figure is recomputed from durable records at read time; no running
// counters are maintained.
type StatsSnapshot struct {
	ActiveProtocolCount int     `json:"activeProtocolCount"`
	QuarantineQueueSize int     `json:"quarantineQueueSize"`
	TotalCostSaved      float64 `json:"totalCostSaved"`
	MessagesLast24h     int     `json:"messagesLast24h"`
}

// UserProtocolStats holds per-user protocol figures derived from the
// audit log and the quarantine queue
type UserProtocolStats struct {
	UserID              string         `json:"userId"`
	CurrentStatus       ProtocolStatus `json:"currentStatus"`
	TimesActivated      int            `json:"timesActivated"`
	MessagesQuarantined int            `json:"messagesQuarantined"`
	MessagesProcessed   int            `json:"messagesProcessed"`
	CostSaved           float64        `json:"costSaved"`
}
