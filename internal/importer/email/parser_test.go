package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/model"
)

func TestParseLineFormats(t *testing.T) {
	tests := []struct {
		name string
		line string
		want api.ItemInput
	}{
		{
			name: "bare name",
			line: "milk",
			want: api.ItemInput{
				Name:     "milk",
				Quantity: 1,
				Category: model.CategoryOther,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "quantity unit name and category",
			line: "2 lb chicken breast #meat",
			want: api.ItemInput{
				Name:     "chicken breast",
				Quantity: 2,
				Unit:     "lb",
				Category: model.CategoryMeat,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "fractional quantity without unit",
			line: "0.5 watermelon",
			want: api.ItemInput{
				Name:     "watermelon",
				Quantity: 0.5,
				Category: model.CategoryOther,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "dash list marker",
			line: "- 3 cans tomatoes #pantry",
			want: api.ItemInput{
				Name:     "tomatoes",
				Quantity: 3,
				Unit:     "cans",
				Category: model.CategoryPantry,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "bullet marker",
			line: "• bread #bakery",
			want: api.ItemInput{
				Name:     "bread",
				Quantity: 1,
				Category: model.CategoryBakery,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "unknown category falls back to other",
			line: "snacks #junkfood",
			want: api.ItemInput{
				Name:     "snacks",
				Quantity: 1,
				Category: model.CategoryOther,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "number without following name keeps it as name",
			line: "7up",
			want: api.ItemInput{
				Name:     "7up",
				Quantity: 1,
				Category: model.CategoryOther,
				Priority: model.PriorityMedium,
			},
		},
		{
			name: "unit word alone is a name not a unit",
			line: "2 dozen",
			want: api.ItemInput{
				Name:     "dozen",
				Quantity: 2,
				Category: model.CategoryOther,
				Priority: model.PriorityMedium,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineSkips(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"- ",
		"> quoted reply text",
	} {
		_, ok := parseLine(line)
		assert.False(t, ok, "line %q should be skipped", line)
	}
}

func TestParseItemsBody(t *testing.T) {
	body := "- 2 l milk #dairy\n" +
		"- eggs\n" +
		"\n" +
		"> earlier message\n" +
		"1.5 kg apples #produce\n"

	items := ParseItems(body)
	require.Len(t, items, 3)

	assert.Equal(t, "milk", items[0].Name)
	assert.Equal(t, "l", items[0].Unit)
	assert.Equal(t, model.CategoryDairy, items[0].Category)
	assert.Equal(t, "eggs", items[1].Name)
	assert.Equal(t, "apples", items[2].Name)
	assert.Equal(t, 1.5, items[2].Quantity)
}
