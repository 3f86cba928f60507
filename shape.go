package domcheck

// ShapeKind names a response parsing strategy.
type ShapeKind string

// Supported response shapes.
const (
	// ShapeNested walks a key path through nested objects and compares the
	// leaf with TrueMarker.
	ShapeNested ShapeKind = "nested"

	// ShapeFlat reads a top-level boolean field.
	ShapeFlat ShapeKind = "flat"

	// ShapeJSONPath evaluates a JSONPath expression.
	ShapeJSONPath ShapeKind = "jsonpath"
)

// DefaultFlatField is the field read by ShapeFlat when no path is configured.
const DefaultFlatField = "available"

// ResponseShape describes where a provider puts its availability verdict.
type ResponseShape struct {
	Kind       ShapeKind `json:"shape" yaml:"shape"`
	Path       []string  `json:"path,omitempty" yaml:"path,omitempty"`
	Expr       string    `json:"expr,omitempty" yaml:"expr,omitempty"`
	TrueMarker any       `json:"trueMarker,omitempty" yaml:"trueMarker,omitempty"`
}

// Validate returns an error if the shape is incomplete.
func (s *ResponseShape) Validate() error {
	switch s.Kind {
	case ShapeNested:
		if len(s.Path) == 0 {
			return Errorf(EINVALID, "nested shape requires a path")
		}
		if s.TrueMarker == nil {
			return Errorf(EINVALID, "nested shape requires a true marker")
		}
	case ShapeFlat:
		if len(s.Path) > 1 {
			return Errorf(EINVALID, "flat shape takes a single field, got %d", len(s.Path))
		}
	case ShapeJSONPath:
		if s.Expr == "" {
			return Errorf(EINVALID, "jsonpath shape requires an expression")
		}
	default:
		return Errorf(EINVALID, "unknown response shape %q", s.Kind)
	}
	return nil
}

// DefaultShapes returns the shapes tried when none are configured: the
// DomainInfo envelope used by WHOIS-style providers (in both key casings,
// with either domainAvailability or availability), then a top-level
// "available" flag.
func DefaultShapes() []ResponseShape {
	return []ResponseShape{
		{Kind: ShapeNested, Path: []string{"DomainInfo", "domainAvailability"}, TrueMarker: "AVAILABLE"},
		{Kind: ShapeNested, Path: []string{"domainInfo", "domainAvailability"}, TrueMarker: "AVAILABLE"},
		{Kind: ShapeNested, Path: []string{"DomainInfo", "availability"}, TrueMarker: "AVAILABLE"},
		{Kind: ShapeNested, Path: []string{"domainInfo", "availability"}, TrueMarker: "AVAILABLE"},
		{Kind: ShapeFlat, Path: []string{DefaultFlatField}},
	}
}
