package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrellis/catalog-engine/pkg/models"
)

func TestMapType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain int", "int", "INT"},
		{"uppercase", "BIGINT", "BIGINT"},
		{"length suffix stripped", "varchar(255)", "VARCHAR"},
		{"decimal with precision", "decimal(10,2)", "DECIMAL"},
		{"two-word type", "double precision", "DOUBLE"},
		{"surrounding whitespace", "  text ", "TEXT"},
		{"unknown type falls back", "customtype(10)", DefaultCatalogType},
		{"empty string falls back", "", DefaultCatalogType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapType(tt.input))
		})
	}
}

func TestMapSensitivity(t *testing.T) {
	t.Run("both absent", func(t *testing.T) {
		assert.Empty(t, MapSensitivity("", ""))
	})

	t.Run("level only", func(t *testing.T) {
		assert.Equal(t, []string{"Sensitivity.Tier4"}, MapSensitivity("restricted", ""))
	})

	t.Run("category only", func(t *testing.T) {
		assert.Equal(t, []string{"PII.Financial"}, MapSensitivity("", "financial"))
	})

	t.Run("both present are additive", func(t *testing.T) {
		tags := MapSensitivity("confidential", "health")
		assert.Equal(t, []string{"Sensitivity.Tier3", "PII.Health"}, tags)
	})

	t.Run("unknown values map to nothing", func(t *testing.T) {
		assert.Empty(t, MapSensitivity("topsecret", "favourite_color"))
	})
}

func TestConvertColumn(t *testing.T) {
	t.Run("basic column", func(t *testing.T) {
		col, props := ConvertColumn(models.ColumnDef{
			Name:        "total",
			DataType:    "decimal(10,2)",
			Description: "order total",
		})
		assert.Equal(t, "total", col.Name)
		assert.Equal(t, "DECIMAL", col.DataType)
		assert.Equal(t, "order total", col.Description)
		assert.Nil(t, props)
	})

	t.Run("AI description appended, never replacing", func(t *testing.T) {
		col, _ := ConvertColumn(models.ColumnDef{
			Name:          "email",
			DataType:      "varchar(320)",
			Description:   "customer email",
			AIDescription: "primary contact address",
		})
		assert.Equal(t, "customer email\n\n[AI] primary contact address", col.Description)
	})

	t.Run("AI description alone", func(t *testing.T) {
		col, _ := ConvertColumn(models.ColumnDef{
			Name:          "email",
			DataType:      "text",
			AIDescription: "primary contact address",
		})
		assert.Equal(t, "[AI] primary contact address", col.Description)
	})

	t.Run("custom properties collected only when present", func(t *testing.T) {
		score := 0.97
		stale := true
		_, props := ConvertColumn(models.ColumnDef{
			Name:         "ssn",
			DataType:     "char(11)",
			BusinessTerm: "Social Security Number",
			QualityScore: &score,
			Stale:        &stale,
		})
		require.NotNil(t, props)
		assert.Equal(t, "Social Security Number", props["businessTerm"])
		assert.Equal(t, "0.97", props["qualityScore"])
		assert.Equal(t, "true", props["stale"])
		_, hasNullRate := props["nullRate"]
		assert.False(t, hasNullRate)
	})

	t.Run("sensitivity tags attached", func(t *testing.T) {
		col, _ := ConvertColumn(models.ColumnDef{
			Name:             "ssn",
			DataType:         "char(11)",
			SensitivityLevel: "restricted",
			SensitivityType:  "pii",
		})
		assert.Equal(t, []string{"Sensitivity.Tier4", "PII.Personal"}, col.Tags)
	})
}

func TestConvertColumns(t *testing.T) {
	rate := 0.02
	cols, props := ConvertColumns([]models.ColumnDef{
		{Name: "id", DataType: "int"},
		{Name: "total", DataType: "decimal", NullRate: &rate},
	})
	require.Len(t, cols, 2)
	assert.Equal(t, "INT", cols[0].DataType)
	require.NotNil(t, props)
	assert.Equal(t, "0.02", props["total.nullRate"])
}
