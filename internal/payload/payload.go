package payload

// Shape declares how a candidate payload's text is expected to be consumed,
// which selects the normalization profile and whether JSON repair applies.
type Shape string

const (
	ShapeFreeText Shape = "free_text"
	ShapeWebText  Shape = "web_text"
	ShapeJSON     Shape = "json_value"
)

// Payload is a piece of raw text plus its declared shape. Payloads are
// immutable: resolution returns new values and never touches the original,
// so every repair stage stays independently auditable.
type Payload struct {
	Text  string
	Shape Shape

	// Exact skips prefix/fence stripping for arguments that must match
	// existing content byte-for-byte (an old_str contract). Repair of the
	// surrounding JSON still applies.
	Exact bool
}

// New returns a payload with the given text and shape.
func New(text string, shape Shape) Payload {
	return Payload{Text: text, Shape: shape}
}

// NewExact returns a payload whose text must survive unmodified through
// normalization (only structural JSON repair may run).
func NewExact(text string, shape Shape) Payload {
	return Payload{Text: text, Shape: shape, Exact: true}
}

// Resolved is the outcome of running a payload through its profile.
// For json_value shapes Value holds the parsed result and Text the exact
// text that parsed; for the text shapes Value is nil.
type Resolved struct {
	Text  string
	Value any
}

// Resolve runs the payload through the profile its shape selects.
// The returned error, if any, is a *RepairFailure.
func Resolve(p Payload) (Resolved, error) {
	switch p.Shape {
	case ShapeWebText:
		cleaned, _ := ProcessWebContent(p.Text)
		return Resolved{Text: cleaned}, nil
	case ShapeJSON:
		text := p.Text
		if !p.Exact {
			text = Normalize(text)
		}
		value, repaired, err := repairJSON(text)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Text: repaired, Value: value}, nil
	default:
		return Resolved{Text: Normalize(p.Text)}, nil
	}
}
