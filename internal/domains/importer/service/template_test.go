package service

import (
	"bytes"
	"testing"

	"deliveryops-backend/internal/domains/importer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The template must round-trip: re-parsing it through the ingestor and the
// mapper has to bind every canonical field to its template column.
func TestGenerateTemplate_RoundTrip(t *testing.T) {
	for _, format := range []string{"csv", "xlsx"} {
		t.Run(format, func(t *testing.T) {
			content, contentType, err := GenerateTemplate(format)
			require.NoError(t, err)
			assert.NotEmpty(t, contentType)

			sheet, err := ParseImportFile("template."+format, bytes.NewReader(content), int64(len(content)))
			require.NoError(t, err)

			mapping := AutoMapColumns(sheet.Headers)
			for i, field := range model.AllFields {
				col, ok := mapping.Column(field)
				require.True(t, ok, "field %s not mapped", field)
				assert.Equal(t, i, col, "field %s bound to wrong column", field)
			}
			assert.Empty(t, mapping.Collisions)
		})
	}
}

// The sample row must itself survive the pipeline as a valid order.
func TestGenerateTemplate_SampleRowIsValid(t *testing.T) {
	content, _, err := GenerateTemplate("csv")
	require.NoError(t, err)

	sheet, err := ParseImportFile("template.csv", bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	rows := MapRowsToOrders(sheet.Rows, AutoMapColumns(sheet.Headers))
	require.Len(t, rows, 1)

	ValidateAllRows(rows)
	assert.Empty(t, rows[0].Errors)
}

func TestGenerateTemplate_UnknownFormat(t *testing.T) {
	_, _, err := GenerateTemplate("ods")
	assert.Error(t, err)
}
