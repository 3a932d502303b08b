package cast

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Weak converts values to T in both directions using weakly typed
// decoding ("30" -> 30, 1 -> true, 2.0 -> "2").
type Weak[T any] struct {
	name string
}

func weak[T any](name string) Constructor {
	return func(string, Options) (Caster, error) {
		return Weak[T]{name: name}, nil
	}
}

func (w Weak[T]) Decode(value any) (any, error) {
	return w.convert(value)
}

func (w Weak[T]) Encode(value any) (any, error) {
	return w.convert(value)
}

func (w Weak[T]) convert(value any) (any, error) {
	var out T

	if err := mapstructure.WeakDecode(value, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedValue, w.name, err)
	}

	return out, nil
}

// JSON stores structured data values as JSON text on the model side.
type JSON struct{}

// Decode encodes maps and sequences into a JSON string; strings pass through.
func (JSON) Decode(value any) (any, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	return string(raw), nil
}

// Encode parses JSON text back into maps and sequences.
func (JSON) Encode(value any) (any, error) {
	var raw []byte

	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return value, nil
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	return out, nil
}
