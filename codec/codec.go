// Package codec centralizes JSON encoding for raw feature records and
// manifest files.
//
// Raw feature files are one JSON object per line; at millions of rows the
// decoder is on the hot path of the build, so the default codec is
// goccy/go-json. The stdlib codec remains available for callers that want
// the lowest-dependency option.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
