package settings

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrBadValue indicates a raw string could not be coerced into a valid
	// value for the item it was submitted for. The stored value is unchanged.
	ErrBadValue = errors.New("bad value")
	// ErrInvalidItem indicates a configuration schema describes an item that
	// can never be valid (out-of-range default, empty option set, ...).
	ErrInvalidItem = errors.New("invalid config item")
)

// Type identifies a value variant. It doubles as the JSON "type" discriminator.
type Type string

const (
	TypeString    Type = "string"
	TypeInteger   Type = "integer"
	TypeSelection Type = "selection"
	TypeBool      Type = "bool"
)

// Value is the closed set of configuration value variants. A Value carries
// both its current value and the rule that bounds future writes; it is never
// observably invalid — Set either succeeds or leaves the prior value intact.
type Value interface {
	// Type returns the variant discriminator.
	Type() Type
	// Set coerces the raw form string into the variant's value. It returns
	// an error wrapping ErrBadValue (and changes nothing) when the string
	// does not parse or violates the variant's validation rule.
	Set(raw string) error
	// Clone returns an independent copy so snapshots never alias live state.
	Clone() Value
}

// StringValue is a free-form text value.
type StringValue struct {
	Value string
}

func (v *StringValue) Type() Type { return TypeString }

func (v *StringValue) Set(raw string) error {
	v.Value = raw
	return nil
}

func (v *StringValue) Clone() Value {
	c := *v
	return &c
}

// IntegerValue is an unsigned integer bounded by an inclusive [Min, Max] range.
type IntegerValue struct {
	Min   uint32
	Max   uint32
	Value uint32
}

// NewIntegerValue builds an IntegerValue, rejecting ranges that the default
// value does not satisfy.
func NewIntegerValue(min, max, value uint32) (*IntegerValue, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %d exceeds max %d", ErrInvalidItem, min, max)
	}
	if value < min || value > max {
		return nil, fmt.Errorf("%w: value %d outside range [%d, %d]", ErrInvalidItem, value, min, max)
	}
	return &IntegerValue{Min: min, Max: max, Value: value}, nil
}

func (v *IntegerValue) Type() Type { return TypeInteger }

func (v *IntegerValue) Set(raw string) error {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %q is not an unsigned integer", ErrBadValue, raw)
	}
	u := uint32(n)
	if u < v.Min || u > v.Max {
		return fmt.Errorf("%w: %d outside range [%d, %d]", ErrBadValue, u, v.Min, v.Max)
	}
	v.Value = u
	return nil
}

func (v *IntegerValue) Clone() Value {
	c := *v
	return &c
}

// Choice is one selectable option of a SelectionValue.
type Choice struct {
	Value string `json:"value"`
	Title string `json:"title"`
}

// SelectionValue is a value restricted to a fixed option set.
type SelectionValue struct {
	Value   string
	Options []Choice
}

// NewSelectionValue builds a SelectionValue, rejecting defaults that are not
// in the option set.
func NewSelectionValue(value string, options []Choice) (*SelectionValue, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: selection needs at least one option", ErrInvalidItem)
	}
	v := &SelectionValue{Value: value, Options: options}
	if !v.allowed(value) {
		return nil, fmt.Errorf("%w: %q does not match any option", ErrInvalidItem, value)
	}
	return v, nil
}

func (v *SelectionValue) Type() Type { return TypeSelection }

func (v *SelectionValue) Set(raw string) error {
	if !v.allowed(raw) {
		return fmt.Errorf("%w: %q does not match any option", ErrBadValue, raw)
	}
	v.Value = raw
	return nil
}

func (v *SelectionValue) Clone() Value {
	c := &SelectionValue{Value: v.Value, Options: make([]Choice, len(v.Options))}
	copy(c.Options, v.Options)
	return c
}

func (v *SelectionValue) allowed(candidate string) bool {
	for _, opt := range v.Options {
		if opt.Value == candidate {
			return true
		}
	}
	return false
}

// BoolValue is an on/off flag. Set follows HTML checkbox semantics: a
// submitted "on" means true, anything else (including absence of the field
// being submitted as empty) means false. Set never fails.
type BoolValue struct {
	Value bool
}

func (v *BoolValue) Type() Type { return TypeBool }

func (v *BoolValue) Set(raw string) error {
	v.Value = raw == "on"
	return nil
}

func (v *BoolValue) Clone() Value {
	c := *v
	return &c
}
