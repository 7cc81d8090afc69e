package settings

import (
	"encoding/json"
	"fmt"
)

// Item is one named configuration entry of a session. Names are unique
// within a session; Title is the human-readable label shown in the form.
type Item struct {
	Name  string
	Title string
	Value Value
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	return Item{Name: it.Name, Title: it.Title, Value: it.Value.Clone()}
}

// CloneItems deep-copies a schema so callers and owners never share state.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// itemJSON is the flattened wire representation: the variant discriminator
// and its fields sit next to name and title rather than in a nested object.
type itemJSON struct {
	Name    string          `json:"name"`
	Title   string          `json:"title"`
	Type    Type            `json:"type"`
	Value   json.RawMessage `json:"value"`
	Min     *uint32         `json:"min,omitempty"`
	Max     *uint32         `json:"max,omitempty"`
	Options []Choice        `json:"options,omitempty"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	raw := itemJSON{Name: it.Name, Title: it.Title}
	if it.Value == nil {
		return nil, fmt.Errorf("%w: item %q has no value", ErrInvalidItem, it.Name)
	}
	raw.Type = it.Value.Type()

	var err error
	switch v := it.Value.(type) {
	case *StringValue:
		raw.Value, err = json.Marshal(v.Value)
	case *IntegerValue:
		raw.Value, err = json.Marshal(v.Value)
		raw.Min, raw.Max = &v.Min, &v.Max
	case *SelectionValue:
		raw.Value, err = json.Marshal(v.Value)
		raw.Options = v.Options
	case *BoolValue:
		raw.Value, err = json.Marshal(v.Value)
	default:
		return nil, fmt.Errorf("%w: item %q has unknown value type %T", ErrInvalidItem, it.Name, it.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidItem)
	}
	if len(raw.Value) == 0 {
		return fmt.Errorf("%w: item %q has no value", ErrInvalidItem, raw.Name)
	}

	value, err := decodeValue(raw)
	if err != nil {
		return fmt.Errorf("item %q: %w", raw.Name, err)
	}
	it.Name = raw.Name
	it.Title = raw.Title
	it.Value = value
	return nil
}

func decodeValue(raw itemJSON) (Value, error) {
	switch raw.Type {
	case TypeString:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return nil, fmt.Errorf("%w: string value: %v", ErrInvalidItem, err)
		}
		return &StringValue{Value: s}, nil

	case TypeInteger:
		var n uint32
		if err := json.Unmarshal(raw.Value, &n); err != nil {
			return nil, fmt.Errorf("%w: integer value: %v", ErrInvalidItem, err)
		}
		if raw.Min == nil || raw.Max == nil {
			return nil, fmt.Errorf("%w: integer needs min and max", ErrInvalidItem)
		}
		return NewIntegerValue(*raw.Min, *raw.Max, n)

	case TypeSelection:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return nil, fmt.Errorf("%w: selection value: %v", ErrInvalidItem, err)
		}
		return NewSelectionValue(s, raw.Options)

	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return nil, fmt.Errorf("%w: bool value: %v", ErrInvalidItem, err)
		}
		return &BoolValue{Value: b}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidItem, raw.Type)
	}
}
