package cart

import (
	"encoding/json"
	"testing"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oud() domain.Product {
	return domain.Product{ID: "ajmal-1", NameEn: "Oud Royal", NameAr: "عود ملكي", UnitPrice: 100}
}

func musk() domain.Product {
	return domain.Product{ID: "gazali-3", NameEn: "White Musk", UnitPrice: 50}
}

func TestAdd(t *testing.T) {
	c := New(nil)
	added, err := c.Add(oud())
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.Add(oud())
	require.NoError(t, err)
	assert.False(t, added, "existing product must not create a second line")

	require.Equal(t, 1, c.Len())
	line, ok := c.Find("ajmal-1")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestAdd_Validation(t *testing.T) {
	c := New(nil)
	_, err := c.Add(domain.Product{UnitPrice: -1})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, domain.InvalidFields(err), 3)
	assert.True(t, c.Empty())
}

func TestDecrement(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(oud())
	require.NoError(t, c.Increment("ajmal-1"))
	require.NoError(t, c.Increment("ajmal-1"))

	removed, err := c.Decrement("ajmal-1")
	require.NoError(t, err)
	assert.False(t, removed)
	line, _ := c.Find("ajmal-1")
	assert.Equal(t, 2, line.Quantity)

	removed, err = c.Decrement("ajmal-1")
	require.NoError(t, err)
	assert.False(t, removed)
	line, _ = c.Find("ajmal-1")
	assert.Equal(t, 1, line.Quantity)

	removed, err = c.Decrement("ajmal-1")
	require.NoError(t, err)
	assert.True(t, removed, "decrement at quantity 1 removes the line")
	assert.True(t, c.Empty())
}

func TestIncrementDecrement_Unknown(t *testing.T) {
	c := New(nil)
	assert.ErrorIs(t, c.Increment("nope"), domain.ErrNotFound)
	_, err := c.Decrement("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, c.Remove("nope"))
}

func TestSubtotal(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(oud())
	_, _ = c.Add(musk())
	require.NoError(t, c.Increment("ajmal-1"))

	assert.Equal(t, int64(250), c.Subtotal())
	assert.Equal(t, int64(250), Subtotal(c.Lines()))
}

func TestLines_ReturnsCopy(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(oud())
	lines := c.Lines()
	lines[0].Quantity = 99
	line, _ := c.Find("ajmal-1")
	assert.Equal(t, 1, line.Quantity)
}

func TestNew_RepairsInvariants(t *testing.T) {
	c := New([]domain.CartLine{
		{ProductID: "a", NameEn: "A", UnitPrice: 10, Quantity: 1},
		{ProductID: "", NameEn: "blank", UnitPrice: 10, Quantity: 1},
		{ProductID: "b", NameEn: "B", UnitPrice: 10, Quantity: 0},
		{ProductID: "a", NameEn: "A", UnitPrice: 10, Quantity: 2},
	})
	require.Equal(t, 1, c.Len())
	line, _ := c.Find("a")
	assert.Equal(t, 3, line.Quantity)
}

func TestJSON(t *testing.T) {
	c := New(nil)
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	_, _ = c.Add(oud())
	raw, err = json.Marshal(c)
	require.NoError(t, err)

	var back Cart
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c.Lines(), back.Lines())
}

func TestClear(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(oud())
	_, _ = c.Add(musk())
	c.Clear()
	assert.True(t, c.Empty())
	assert.Equal(t, int64(0), c.Subtotal())
}

func TestDisplayName(t *testing.T) {
	c := New(nil)
	_, _ = c.Add(oud())
	_, _ = c.Add(musk())
	a, _ := c.Find("ajmal-1")
	b, _ := c.Find("gazali-3")
	assert.Equal(t, "عود ملكي", a.DisplayName(domain.LocaleAR))
	assert.Equal(t, "Oud Royal", a.DisplayName(domain.LocaleEN))
	assert.Equal(t, "White Musk", b.DisplayName(domain.LocaleAR))
}
