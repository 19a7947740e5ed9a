// Package diff compares a local table snapshot against the catalog's stored
// definition and produces a structured change set. The engine is
// deterministic: the same two inputs always yield the same changes in the
// same order.
package diff

import (
	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/mapping"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

// DetectChanges diffs the proposed local definition against the existing
// remote table. Proposed columns are compared after mapping (catalog type
// vocabulary, folded description) so that a table synced twice without local
// edits produces no changes.
//
// Ordering: proposed columns are walked first (Added/Modified in proposed
// order), then existing columns (Deleted in remote order). Returns nil when
// nothing changed and the table description is identical; the caller treats
// nil as "no-op", not an error.
func DetectChanges(existing *catalog.Table, proposed models.TableDef) *models.TableChange {
	if existing == nil {
		return nil
	}

	existingByName := make(map[string]catalog.Column, len(existing.Columns))
	for _, col := range existing.Columns {
		existingByName[col.Name] = col
	}
	proposedNames := make(map[string]struct{}, len(proposed.Columns))

	var columnChanges []models.ColumnChange

	for _, local := range proposed.Columns {
		proposedNames[local.Name] = struct{}{}
		mapped, _ := mapping.ConvertColumn(local)

		remote, ok := existingByName[local.Name]
		if !ok {
			columnChanges = append(columnChanges, models.ColumnChange{
				ColumnName:     local.Name,
				ChangeType:     models.ChangeTypeAdded,
				NewType:        mapped.DataType,
				NewDescription: mapped.Description,
			})
			continue
		}

		if mapped.DataType != remote.DataType || mapped.Description != remote.Description {
			columnChanges = append(columnChanges, models.ColumnChange{
				ColumnName:     local.Name,
				ChangeType:     models.ChangeTypeModified,
				OldType:        remote.DataType,
				NewType:        mapped.DataType,
				OldDescription: remote.Description,
				NewDescription: mapped.Description,
			})
		}
	}

	for _, remote := range existing.Columns {
		if _, ok := proposedNames[remote.Name]; !ok {
			columnChanges = append(columnChanges, models.ColumnChange{
				ColumnName:     remote.Name,
				ChangeType:     models.ChangeTypeDeleted,
				OldType:        remote.DataType,
				OldDescription: remote.Description,
			})
		}
	}

	descriptionChanged := proposed.Description != existing.Description
	if len(columnChanges) == 0 && !descriptionChanged {
		return nil
	}

	change := &models.TableChange{
		TableName:     proposed.TableName,
		DatabaseName:  proposed.DatabaseName,
		ChangeType:    models.ChangeTypeUnchanged,
		ColumnChanges: columnChanges,
	}
	if len(columnChanges) > 0 {
		change.ChangeType = models.ChangeTypeModified
	}
	if descriptionChanged {
		change.OldDescription = existing.Description
		change.NewDescription = proposed.Description
	}
	return change
}
