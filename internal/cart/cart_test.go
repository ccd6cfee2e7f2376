package cart

import (
	"encoding/json"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/paper"
)

func intPtr(n int) *int { return &n }

func TestDecodeFlexiblePaperType(t *testing.T) {
	data := `{"lines":[
		{"id":"a","quantity":1,"order_groups":[{"country":"USA","totalPages":10,"paperType":0.3}]},
		{"id":"b","quantity":2,"order_groups":[{"country":"USA","totalPages":10,"paperType":"premium"}]},
		{"id":"c","quantity":"lots"},
		{"id":"d","order_groups":[{"totalPages":5,"paper_size":"minkus","paper_options":{"paper_weight":"70lb"}}]}
	]}`

	var c Cart
	require.NoError(t, json.Unmarshal([]byte(data), &c))
	require.Len(t, c.Lines, 3)

	assert.Equal(t, 0.3, c.Lines[0].OrderGroups[0].PaperType)
	assert.Equal(t, "premium", c.Lines[1].OrderGroups[0].PaperType)
	assert.Equal(t, 2, c.Lines[1].Qty())

	d := c.Lines[2]
	assert.False(t, d.Shippable())
	assert.Equal(t, "70lb", d.OrderGroups[0].PaperOptions[catalog.CategoryPaperWeight])

	cat := catalog.MustDefault()
	assert.Equal(t, "premium", cat.NormalizePaperTypeID(c.Lines[0].OrderGroups[0].Choice().PaperType))
}

func TestCartOperations(t *testing.T) {
	var c Cart
	assert.True(t, c.IsEmpty())

	line := c.Add(Line{Country: "USA", Quantity: intPtr(2), Total: 10})
	assert.NotEmpty(t, line.ID)
	kept := c.Add(Line{ID: "fixed", Quantity: intPtr(1), Total: 4.5})
	assert.Equal(t, "fixed", kept.ID)

	updated, err := c.SetQuantity(line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Total)
	assert.Equal(t, 3, updated.Qty())
	assert.Equal(t, 19.5, c.Subtotal())

	_, err = c.SetQuantity(line.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.SetQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrLineNotFound)

	require.NoError(t, c.Remove(line.ID))
	assert.Len(t, c.Lines, 1)
	assert.ErrorIs(t, c.Remove(line.ID), ErrLineNotFound)

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestPrice(t *testing.T) {
	r := paper.NewResolver(catalog.MustDefault())

	total, err := Price(r, Line{
		Quantity: intPtr(2),
		OrderGroups: []Group{
			{TotalPages: 50, PaperSize: "8.5x11"},
			{TotalPages: 100, PaperType: 0.30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 80.00, total)

	_, err = Price(r, Line{Quantity: intPtr(1), OrderGroups: []Group{{TotalPages: 1, PaperSize: "nope"}}})
	assert.ErrorIs(t, err, paper.ErrSizeNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	session := sessions.NewSession(nil, "test")

	assert.True(t, Load(session).IsEmpty())

	c := &Cart{}
	c.Add(Line{ID: "x", Quantity: intPtr(1), OrderGroups: []Group{{TotalPages: 3, PaperType: "deluxe"}}})
	require.NoError(t, Store(session, c))

	loaded := Load(session)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "deluxe", loaded.Lines[0].OrderGroups[0].PaperType)

	session.Values[SessionKey] = "{not json"
	assert.True(t, Load(session).IsEmpty())
}
