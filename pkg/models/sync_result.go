package models

// SyncAction describes what a single table or edge sync ended up doing.
type SyncAction string

const (
	SyncActionCreated SyncAction = "created"
	SyncActionUpdated SyncAction = "updated"
	SyncActionSkipped SyncAction = "skipped"
	SyncActionFailed  SyncAction = "failed"
)

// SyncResult is the per-table outcome of one synchronization. It is built
// once and never mutated afterwards so batch aggregation stays attributable
// regardless of completion order.
type SyncResult struct {
	Success    bool         `json:"success"`
	Database   string       `json:"database"`
	TableName  string       `json:"table_name"`
	Action     SyncAction   `json:"action"`
	Changes    *TableChange `json:"changes,omitempty"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

// SyncStats aggregates a batch of sync results.
type SyncStats struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Add folds one result into the aggregate.
func (s *SyncStats) Add(r *SyncResult) {
	switch {
	case r == nil:
		s.Skipped++
	case r.Action == SyncActionSkipped:
		s.Skipped++
	case r.Success:
		s.Synced++
	default:
		s.Failed++
	}
}

// Total returns the number of items accounted for.
func (s SyncStats) Total() int {
	return s.Synced + s.Failed + s.Skipped
}
