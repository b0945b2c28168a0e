package service

import (
	"testing"

	"deliveryops-backend/internal/domains/importer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPayloadDuplicates_FlagsSecondOccurrence(t *testing.T) {
	rows := []*model.ImportedOrderRow{
		makeRow("", "Ahmed", "01012345678", "T-Shirt", 2, "100"),
		makeRow("", "Ahmed", "01012345678", "T-Shirt", 2, "100"),
	}

	warnings := DetectPayloadDuplicates(rows, nil)

	require.Len(t, warnings, 1)
	w := warnings[0]
	assert.Equal(t, model.WarningPayloadDuplicate, w.Type)
	assert.Equal(t, 1, w.Index)
	require.NotNil(t, w.MatchedIndex)
	assert.Equal(t, 0, *w.MatchedIndex)
}

func TestDetectPayloadDuplicates_DifferentQuantityIsClean(t *testing.T) {
	rows := []*model.ImportedOrderRow{
		makeRow("", "Ahmed", "01012345678", "T-Shirt", 2, "100"),
		makeRow("", "Ahmed", "01012345678", "T-Shirt", 3, "100"),
	}

	assert.Empty(t, DetectPayloadDuplicates(rows, nil))
}

func TestDetectPayloadDuplicates_MobileComparedNormalized(t *testing.T) {
	a := makeRow("", "Ahmed", "01012345678", "T-Shirt", 2, "100")
	b := makeRow("", "Ahmed", "+20 101 234 5678", "t-shirt", 2, "100")

	warnings := DetectPayloadDuplicates([]*model.ImportedOrderRow{a, b}, nil)

	assert.Len(t, warnings, 1, "formatting differences do not hide duplicates")
}

func TestDetectPayloadDuplicates_LaterOccurrencesAllPointAtFirst(t *testing.T) {
	rows := []*model.ImportedOrderRow{
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
	}

	warnings := DetectPayloadDuplicates(rows, nil)

	require.Len(t, warnings, 2)
	assert.Equal(t, 0, *warnings[0].MatchedIndex)
	assert.Equal(t, 0, *warnings[1].MatchedIndex)
	assert.Equal(t, 2, warnings[1].Index)
}

func TestDetectPayloadDuplicates_DoesNotMutateRows(t *testing.T) {
	rows := []*model.ImportedOrderRow{
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
	}
	before := *rows[1]

	DetectPayloadDuplicates(rows, nil)

	assert.Equal(t, before.Errors, rows[1].Errors)
	assert.Equal(t, before.CustomerMobile, rows[1].CustomerMobile)
}

func TestDetectPayloadDuplicates_PositionsRemapToPreviewIndexes(t *testing.T) {
	// A filtered subset (rows 1 and 3 of a four-row preview) must report
	// the preview positions, not the subset positions.
	rows := []*model.ImportedOrderRow{
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
		makeRow("", "Ahmed", "01012345678", "Tee", 1, "10"),
	}

	warnings := DetectPayloadDuplicates(rows, []int{1, 3})

	require.Len(t, warnings, 1)
	assert.Equal(t, 3, warnings[0].Index)
	require.NotNil(t, warnings[0].MatchedIndex)
	assert.Equal(t, 1, *warnings[0].MatchedIndex)
	assert.Contains(t, warnings[0].Message, "row 4 repeats the order on row 2")
}

func TestDetectPayloadDuplicates_Deterministic(t *testing.T) {
	rows := []*model.ImportedOrderRow{
		makeRow("", "a", "01012345678", "x", 1, "1"),
		makeRow("", "b", "01198765432", "y", 1, "1"),
		makeRow("", "a", "01012345678", "x", 1, "1"),
	}

	first := DetectPayloadDuplicates(rows, nil)
	second := DetectPayloadDuplicates(rows, nil)

	assert.Equal(t, first, second)
}
