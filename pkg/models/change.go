package models

// ChangeType classifies the outcome of comparing one column (or a whole
// table) between the local snapshot and the remote catalog.
type ChangeType string

const (
	ChangeTypeAdded     ChangeType = "added"
	ChangeTypeModified  ChangeType = "modified"
	ChangeTypeDeleted   ChangeType = "deleted"
	ChangeTypeUnchanged ChangeType = "unchanged"
)

// ColumnChange records a single detected column difference. Values are set
// according to the change type: Added carries only the new side, Deleted only
// the old side, Modified both.
type ColumnChange struct {
	ColumnName     string     `json:"column_name"`
	ChangeType     ChangeType `json:"change_type"`
	OldType        string     `json:"old_type,omitempty"`
	NewType        string     `json:"new_type,omitempty"`
	OldDescription string     `json:"old_description,omitempty"`
	NewDescription string     `json:"new_description,omitempty"`
}

// TableChange is the structured change set produced by one diff pass.
// ChangeType is Modified iff at least one column changed, Unchanged when only
// the table description differs.
type TableChange struct {
	TableName      string         `json:"table_name"`
	DatabaseName   string         `json:"database_name"`
	ChangeType     ChangeType     `json:"change_type"`
	ColumnChanges  []ColumnChange `json:"column_changes,omitempty"`
	OldDescription string         `json:"old_description,omitempty"`
	NewDescription string         `json:"new_description,omitempty"`
}

// HasColumnChanges reports whether any column-level change was detected.
func (tc *TableChange) HasColumnChanges() bool {
	return len(tc.ColumnChanges) > 0
}

// Counts returns the number of added, modified and deleted columns.
func (tc *TableChange) Counts() (added, modified, deleted int) {
	for _, cc := range tc.ColumnChanges {
		switch cc.ChangeType {
		case ChangeTypeAdded:
			added++
		case ChangeTypeModified:
			modified++
		case ChangeTypeDeleted:
			deleted++
		}
	}
	return added, modified, deleted
}
