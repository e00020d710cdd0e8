// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16 `json:"health"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`
	LinkMask       uint32 `json:"link_mask"`
	FailedTables   uint16 `json:"failed_tables"`
	UnknownPoints  uint16 `json:"unknown_points"`
	CycleSeq       uint16 `json:"cycle_seq"`
}
