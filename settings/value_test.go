package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringValueSet(t *testing.T) {
	v := &StringValue{Value: "qwerty"}
	require.NoError(t, v.Set("sometext"))
	assert.Equal(t, "sometext", v.Value)
}

func TestIntegerValueSet(t *testing.T) {
	v, err := NewIntegerValue(0, 100, 33)
	require.NoError(t, err)

	require.NoError(t, v.Set("42"))
	assert.Equal(t, uint32(42), v.Value)

	// Bounds are inclusive.
	require.NoError(t, v.Set("0"))
	assert.Equal(t, uint32(0), v.Value)
	require.NoError(t, v.Set("100"))
	assert.Equal(t, uint32(100), v.Value)
}

func TestIntegerValueRejectsAndKeepsPrior(t *testing.T) {
	v, err := NewIntegerValue(0, 100, 33)
	require.NoError(t, err)

	for _, raw := range []string{"150", "-1", "abc", "", "12.5"} {
		err := v.Set(raw)
		require.ErrorIs(t, err, ErrBadValue, "raw %q", raw)
		assert.Equal(t, uint32(33), v.Value, "value must be unchanged after rejecting %q", raw)
	}
}

func TestNewIntegerValueValidatesRange(t *testing.T) {
	_, err := NewIntegerValue(10, 5, 7)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewIntegerValue(0, 100, 150)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestSelectionValueSet(t *testing.T) {
	opts := []Choice{
		{Value: "foo", Title: "Foo!"},
		{Value: "bar", Title: "Bar!"},
	}
	v, err := NewSelectionValue("foo", opts)
	require.NoError(t, err)

	require.NoError(t, v.Set("bar"))
	assert.Equal(t, "bar", v.Value)

	err = v.Set("baz")
	require.ErrorIs(t, err, ErrBadValue)
	assert.Equal(t, "bar", v.Value)
}

func TestNewSelectionValueValidatesMembership(t *testing.T) {
	opts := []Choice{{Value: "foo", Title: "Foo!"}}

	_, err := NewSelectionValue("baz", opts)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewSelectionValue("foo", nil)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestBoolValueSet(t *testing.T) {
	v := &BoolValue{}

	require.NoError(t, v.Set("on"))
	assert.True(t, v.Value)

	// Anything but "on" means unchecked.
	require.NoError(t, v.Set(""))
	assert.False(t, v.Value)
	require.NoError(t, v.Set("true"))
	assert.False(t, v.Value)
}

func TestCloneIsIndependent(t *testing.T) {
	sel, err := NewSelectionValue("foo", []Choice{
		{Value: "foo", Title: "Foo!"},
		{Value: "bar", Title: "Bar!"},
	})
	require.NoError(t, err)

	c := sel.Clone().(*SelectionValue)
	require.NoError(t, c.Set("bar"))
	assert.Equal(t, "foo", sel.Value)

	c.Options[0].Title = "mutated"
	assert.Equal(t, "Foo!", sel.Options[0].Title)
}
