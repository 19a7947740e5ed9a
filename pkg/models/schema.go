package models

// ColumnDef is an immutable snapshot of a local column definition taken for
// one sync pass. Optional statistics and classifications are pointers so the
// mapper can distinguish "absent" from zero values.
type ColumnDef struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	Length      int    `json:"length,omitempty"`
	Description string `json:"description,omitempty"`

	// Sensitivity classification (both optional, independently mapped to tags).
	SensitivityLevel string `json:"sensitivity_level,omitempty"`
	SensitivityType  string `json:"sensitivity_type,omitempty"`

	// AIDescription is an AI-generated description folded into the pushed
	// description. It is appended to the human description, never a replacement.
	AIDescription string `json:"ai_description,omitempty"`

	// Ad-hoc enrichment collected into catalog custom properties when present.
	BusinessTerm string   `json:"business_term,omitempty"`
	QualityScore *float64 `json:"quality_score,omitempty"`
	NullRate     *float64 `json:"null_rate,omitempty"`
	Uniqueness   *float64 `json:"uniqueness,omitempty"`
	Stale        *bool    `json:"stale,omitempty"`
}

// TableDef is an immutable snapshot of a local table definition. Each sync
// call builds a fresh snapshot; nothing mutates it afterwards.
type TableDef struct {
	DatabaseName string      `json:"database_name"`
	TableName    string      `json:"table_name"`
	Description  string      `json:"description,omitempty"`
	Columns      []ColumnDef `json:"columns"`
}
