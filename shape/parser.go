// Package shape extracts availability verdicts from provider JSON payloads.
// Each provider shape is one of a closed set of strategies selected by
// configuration; a Parser tries its shapes in order.
package shape

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/fwojciec/domcheck"
)

var _ domcheck.ResponseParser = (*Parser)(nil)

// Parser implements domcheck.ResponseParser over a list of shapes.
type Parser struct {
	shapes []domcheck.ResponseShape
}

// NewParser creates a Parser. With no shapes it uses domcheck.DefaultShapes.
func NewParser(shapes ...domcheck.ResponseShape) (*Parser, error) {
	if len(shapes) == 0 {
		shapes = domcheck.DefaultShapes()
	}
	for i := range shapes {
		if err := shapes[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Parser{shapes: shapes}, nil
}

// Parse returns the verdict of the first shape the payload matches.
func (p *Parser) Parse(payload map[string]any) (bool, error) {
	var reasons []string
	for _, s := range p.shapes {
		available, err := Extract(s, payload)
		if err == nil {
			return available, nil
		}
		reasons = append(reasons, domcheck.ErrorMessage(err))
	}
	return false, domcheck.Errorf(domcheck.EPARSE, "unrecognized response: %s", strings.Join(reasons, "; "))
}

// Extract applies a single shape to the payload.
func Extract(s domcheck.ResponseShape, payload map[string]any) (bool, error) {
	switch s.Kind {
	case domcheck.ShapeNested:
		return extractNested(s, payload)
	case domcheck.ShapeFlat:
		return extractFlat(s, payload)
	case domcheck.ShapeJSONPath:
		return extractJSONPath(s, payload)
	default:
		return false, domcheck.Errorf(domcheck.EPARSE, "unknown response shape %q", s.Kind)
	}
}

func extractNested(s domcheck.ResponseShape, payload map[string]any) (bool, error) {
	var cur any = payload
	for i, key := range s.Path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return false, domcheck.Errorf(domcheck.EPARSE, "%s is not an object", strings.Join(s.Path[:i], "."))
		}
		cur, ok = obj[key]
		if !ok {
			return false, domcheck.Errorf(domcheck.EPARSE, "%s missing", strings.Join(s.Path[:i+1], "."))
		}
	}
	return matchMarker(strings.Join(s.Path, "."), cur, s.TrueMarker)
}

func extractFlat(s domcheck.ResponseShape, payload map[string]any) (bool, error) {
	field := domcheck.DefaultFlatField
	if len(s.Path) == 1 {
		field = s.Path[0]
	}
	v, ok := payload[field]
	if !ok {
		return false, domcheck.Errorf(domcheck.EPARSE, "%s missing", field)
	}
	if s.TrueMarker != nil {
		return matchMarker(field, v, s.TrueMarker)
	}
	b, ok := v.(bool)
	if !ok {
		return false, domcheck.Errorf(domcheck.EPARSE, "%s is %T, want bool", field, v)
	}
	return b, nil
}

func extractJSONPath(s domcheck.ResponseShape, payload map[string]any) (bool, error) {
	v, err := jsonpath.Get(s.Expr, map[string]any(payload))
	if err != nil {
		return false, domcheck.Errorf(domcheck.EPARSE, "%s: %v", s.Expr, err)
	}
	// Wildcard and filter expressions return a list; accept exactly one match.
	if arr, ok := v.([]any); ok {
		if len(arr) != 1 {
			return false, domcheck.Errorf(domcheck.EPARSE, "%s matched %d values, want 1", s.Expr, len(arr))
		}
		v = arr[0]
	}
	if s.TrueMarker == nil {
		b, ok := v.(bool)
		if !ok {
			return false, domcheck.Errorf(domcheck.EPARSE, "%s is %T, want bool", s.Expr, v)
		}
		return b, nil
	}
	return matchMarker(s.Expr, v, s.TrueMarker)
}

// matchMarker compares a JSON value with the configured marker. The value
// must have the marker's JSON type; a value of another type is a parse
// error rather than "unavailable".
func matchMarker(where string, v, marker any) (bool, error) {
	got, want := normalize(v), normalize(marker)
	if got == nil || reflect.TypeOf(got) != reflect.TypeOf(want) {
		return false, domcheck.Errorf(domcheck.EPARSE, "%s is %s, want %T", where, describe(v), want)
	}
	return got == want, nil
}

// normalize maps decoded JSON and YAML scalars onto comparable kinds.
// Objects and arrays return nil.
func normalize(v any) any {
	switch t := v.(type) {
	case string, bool:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return nil
	}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
