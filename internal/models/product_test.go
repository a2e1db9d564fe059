package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houeta/darkside-companion/internal/models"
)

func TestImageRef_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected models.ImageRef
		wantErr  bool
	}{
		{name: "string", input: `"https://cdn.example/a.png"`, expected: models.ImageRef{URL: "https://cdn.example/a.png"}},
		{name: "object with url", input: `{"url":"https://cdn.example/a.png","alt":"A"}`, expected: models.ImageRef{URL: "https://cdn.example/a.png", Alt: "A"}},
		{name: "object with src", input: `{"src":"https://cdn.example/b.png"}`, expected: models.ImageRef{URL: "https://cdn.example/b.png"}},
		{name: "null", input: `null`, expected: models.ImageRef{}},
		{name: "number", input: `12`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ref models.ImageRef
			err := json.Unmarshal([]byte(tc.input), &ref)

			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref)
		})
	}
}

func TestProduct_Decode(t *testing.T) {
	raw := `{
		"id": 1,
		"handle": "black-lotus",
		"title": "Black Lotus",
		"vendor": "Wizards",
		"product_type": "MTG Single",
		"price": 125000,
		"featured_image": "//cdn.example/lotus.png",
		"variants": [
			{"id": 11, "title": "Near Mint", "option1": "Near Mint", "price": 125000, "inventory_quantity": 2},
			{"id": 12, "title": "Damaged", "option1": "Damaged", "price": 50000, "inventory_quantity": null}
		]
	}`

	var p models.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "MTG Single", p.Kind())
	assert.Equal(t, 2, p.Variants[0].Quantity())
	assert.Equal(t, 0, p.Variants[1].Quantity())

	assert.Equal(t, models.ProductSummary{
		Handle:       "black-lotus",
		Title:        "Black Lotus",
		Image:        "//cdn.example/lotus.png",
		Type:         "MTG Single",
		Price:        "1250.00",
		Vendor:       "Wizards",
		VariantCount: 2,
	}, p.Summary())
}
