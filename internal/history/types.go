package history

// Scope names the id space a retired uid belonged to.
type Scope string

const (
	ScopeEntity   Scope = "entity"
	ScopeProperty Scope = "property"
	ScopeIndex    Scope = "index"
	ScopeRelation Scope = "relation"
)

// Run is one recorded sync. Seq and RunID are assigned by RecordRun when
// left empty.
type Run struct {
	Seq         int64  `json:"seq"`
	RunID       string `json:"run_id"`
	LedgerPath  string `json:"ledger_path"`
	Digest      string `json:"digest"`
	Written     bool   `json:"written"`
	Entities    int    `json:"entities"`
	NewIDs      int    `json:"new_ids"`
	Renamed     int    `json:"renamed"`
	Retired     int    `json:"retired"`
	ToolVersion string `json:"tool_version"`
}

// Retirement is one uid retired by a run.
type Retirement struct {
	RunSeq int64 `json:"run_seq"`
	Scope  Scope `json:"scope"`
	UID    int64 `json:"uid"`
}
