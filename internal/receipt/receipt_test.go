package receipt

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

func testCart() *model.Cart {
	return &model.Cart{
		CartID:     7,
		FinalPrice: decimal.RequireFromString("42.50"),
		Items: []model.CartItem{
			{ProductID: 1, Name: "Milk", Quantity: 2, TotalPrice: decimal.RequireFromString("10.00")},
			{ProductID: 2, Name: "Dark Chocolate", Quantity: 1, TotalPrice: decimal.RequireFromString("32.50")},
		},
	}
}

func testOrder() model.Order {
	return model.Order{
		GlobalID:       123456789,
		CartID:         7,
		FinalPrice:     decimal.RequireFromString("42.50"),
		CreditCard:     "1111",
		ShippingCity:   "Haifa",
		ShippingStreet: "Herzl 1",
		ShippingDate:   "2024-03-10",
		OrderDate:      "2024-03-05",
	}
}

func TestNewRegion(t *testing.T) {
	region := NewRegion("Dana", testOrder(), testCart())
	require.NotNil(t, region)

	text := ""
	for _, l := range region.Lines {
		text += l + "\n"
	}

	assert.Contains(t, text, "Dana")
	assert.Contains(t, text, "**** **** **** 1111")
	assert.Contains(t, text, "Dark Chocolate")
	assert.Contains(t, text, "42.50")
	assert.NotContains(t, text, "4111111111111111")
}

func TestNewRegion_EmptyCart(t *testing.T) {
	assert.Nil(t, NewRegion("Dana", testOrder(), nil))
	assert.Nil(t, NewRegion("Dana", testOrder(), &model.Cart{CartID: 1}))
}

func TestFilterItems(t *testing.T) {
	items := testCart().Items

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "", want: []string{"Milk", "Dark Chocolate"}},
		{name: "case insensitive", query: "CHOC", want: []string{"Dark Chocolate"}},
		{name: "spaces trimmed", query: "  milk ", want: []string{"Milk"}},
		{name: "no match", query: "bread", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterItems(items, tt.query)
			names := make([]string, 0, len(got))
			for _, it := range got {
				names = append(names, it.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRasterize(t *testing.T) {
	r := NewRenderer()
	region := &Region{Lines: []string{"one", "two", "three"}}

	img, err := r.Rasterize(region)
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, canvasWidth, b.Dx())
	assert.Equal(t, canvasPadding*2+lineHeight*3, b.Dy())
}

func TestRender(t *testing.T) {
	r := NewRenderer()

	pdf, err := r.Render(NewRegion("Dana", testOrder(), testCart()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "output is not a pdf")
	assert.Contains(t, string(pdf), "/MediaBox")
}

func TestRender_RegionNotFound(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(nil)
	assert.ErrorIs(t, err, ErrRegionNotFound)

	_, err = r.Render(&Region{})
	assert.ErrorIs(t, err, ErrRegionNotFound)
}
