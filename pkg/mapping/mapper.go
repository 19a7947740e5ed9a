// Package mapping translates local column types and sensitivity
// classifications into the remote catalog's vocabulary. Everything here is a
// pure lookup; no I/O, no state.
package mapping

import (
	"strconv"
	"strings"

	"github.com/datatrellis/catalog-engine/pkg/catalog"
	"github.com/datatrellis/catalog-engine/pkg/models"
)

// DefaultCatalogType is the lossy fallback for local types with no mapping.
// Unknown types become VARCHAR rather than failing the sync.
const DefaultCatalogType = "VARCHAR"

// typeTable maps normalized local type names to catalog data types.
var typeTable = map[string]string{
	"int":       "INT",
	"integer":   "INT",
	"smallint":  "SMALLINT",
	"tinyint":   "TINYINT",
	"bigint":    "BIGINT",
	"serial":    "INT",
	"bigserial": "BIGINT",

	"float":            "FLOAT",
	"real":             "FLOAT",
	"double":           "DOUBLE",
	"double precision": "DOUBLE",
	"decimal":          "DECIMAL",
	"numeric":          "DECIMAL",
	"money":            "DECIMAL",

	"char":              "CHAR",
	"character":         "CHAR",
	"varchar":           "VARCHAR",
	"character varying": "VARCHAR",
	"string":            "VARCHAR",
	"text":              "TEXT",
	"mediumtext":        "TEXT",
	"longtext":          "TEXT",

	"date":        "DATE",
	"time":        "TIME",
	"datetime":    "DATETIME",
	"timestamp":   "TIMESTAMP",
	"timestamptz": "TIMESTAMP",

	"bool":    "BOOLEAN",
	"boolean": "BOOLEAN",

	"bytea":     "BINARY",
	"blob":      "BLOB",
	"binary":    "BINARY",
	"varbinary": "VARBINARY",

	"json":  "JSON",
	"jsonb": "JSON",
	"uuid":  "UUID",
	"xml":   "TEXT",
	"array": "ARRAY",
	"enum":  "ENUM",
}

// sensitivityTierTags maps the 4-tier sensitivity level to catalog tags.
var sensitivityTierTags = map[string]string{
	"public":       "Sensitivity.Tier1",
	"internal":     "Sensitivity.Tier2",
	"confidential": "Sensitivity.Tier3",
	"restricted":   "Sensitivity.Tier4",
}

// sensitivityCategoryTags maps the PII category classification to catalog tags.
var sensitivityCategoryTags = map[string]string{
	"pii":        "PII.Personal",
	"financial":  "PII.Financial",
	"health":     "PII.Health",
	"credential": "PII.Credential",
	"contact":    "PII.Contact",
}

// MapType converts a local column type to the catalog data type. The input
// is lower-cased and any parenthesised length suffix is stripped before the
// lookup, so "VARCHAR(255)" and "varchar" map identically. Unmapped types
// fall back to DefaultCatalogType.
func MapType(localType string) string {
	normalized := strings.ToLower(strings.TrimSpace(localType))
	if idx := strings.Index(normalized, "("); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if mapped, ok := typeTable[normalized]; ok {
		return mapped
	}
	return DefaultCatalogType
}

// MapSensitivity converts the optional sensitivity level and category into
// catalog tags. The two are independent and additive: a column carries zero,
// one, or two tags. Unknown values map to no tag.
func MapSensitivity(level, category string) []string {
	var tags []string
	if tag, ok := sensitivityTierTags[strings.ToLower(strings.TrimSpace(level))]; ok {
		tags = append(tags, tag)
	}
	if tag, ok := sensitivityCategoryTags[strings.ToLower(strings.TrimSpace(category))]; ok {
		tags = append(tags, tag)
	}
	return tags
}

// ConvertColumn maps one local column definition to its catalog
// representation plus the custom properties collected from its optional
// enrichment fields. An AI-generated description is appended to the human
// description, never a replacement for it.
func ConvertColumn(col models.ColumnDef) (catalog.Column, map[string]string) {
	description := col.Description
	if col.AIDescription != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "[AI] " + col.AIDescription
	}

	converted := catalog.Column{
		Name:        col.Name,
		DataType:    MapType(col.DataType),
		DataLength:  col.Length,
		Description: description,
		Tags:        MapSensitivity(col.SensitivityLevel, col.SensitivityType),
	}

	props := make(map[string]string)
	if col.BusinessTerm != "" {
		props["businessTerm"] = col.BusinessTerm
	}
	if col.QualityScore != nil {
		props["qualityScore"] = formatFloat(*col.QualityScore)
	}
	if col.NullRate != nil {
		props["nullRate"] = formatFloat(*col.NullRate)
	}
	if col.Uniqueness != nil {
		props["uniqueness"] = formatFloat(*col.Uniqueness)
	}
	if col.Stale != nil {
		props["stale"] = strconv.FormatBool(*col.Stale)
	}
	if len(props) == 0 {
		return converted, nil
	}
	return converted, props
}

// ConvertColumns maps a full column list. Per-column custom properties are
// collected into one side map keyed "<column>.<property>".
func ConvertColumns(cols []models.ColumnDef) ([]catalog.Column, map[string]string) {
	converted := make([]catalog.Column, 0, len(cols))
	allProps := make(map[string]string)

	for _, col := range cols {
		c, props := ConvertColumn(col)
		converted = append(converted, c)
		for k, v := range props {
			allProps[col.Name+"."+k] = v
		}
	}
	if len(allProps) == 0 {
		return converted, nil
	}
	return converted, allProps
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
