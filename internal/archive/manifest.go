package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FunctionManifest is the embedded functions.json content. Function and
// argument order follow the manifest's declared order; generated reference
// sections and search indexes depend on that order being reproducible, so the
// decode goes through the token stream instead of a Go map.
type FunctionManifest struct {
	Functions []Function

	// Raw holds the original manifest bytes for verbatim embedding in
	// metadata output.
	Raw json.RawMessage
}

// Function describes one exported function.
type Function struct {
	Name        string
	Description string
	Arguments   []Argument
}

// Argument describes one declared function argument.
type Argument struct {
	Name        string
	Description string
}

// ParseFunctionManifest decodes functions.json preserving declared order.
func ParseFunctionManifest(data []byte) (*FunctionManifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("manifest root: %w", err)
	}

	m := &FunctionManifest{Raw: append(json.RawMessage(nil), data...)}
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		fn, err := parseFunction(dec, name)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", name, err)
		}
		m.Functions = append(m.Functions, fn)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("manifest root: %w", err)
	}
	return m, nil
}

func parseFunction(dec *json.Decoder, name string) (Function, error) {
	fn := Function{Name: name}
	if err := expectDelim(dec, '{'); err != nil {
		return fn, err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return fn, err
		}
		switch key {
		case "description":
			if err := dec.Decode(&fn.Description); err != nil {
				return fn, fmt.Errorf("description: %w", err)
			}
		case "arguments":
			args, err := parseArguments(dec)
			if err != nil {
				return fn, fmt.Errorf("arguments: %w", err)
			}
			fn.Arguments = args
		default:
			var ignored json.RawMessage
			if err := dec.Decode(&ignored); err != nil {
				return fn, fmt.Errorf("field %q: %w", key, err)
			}
		}
	}
	return fn, expectDelim(dec, '}')
}

func parseArguments(dec *json.Decoder) ([]Argument, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var args []Argument
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		var def struct {
			Description string `json:"description"`
		}
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args = append(args, Argument{Name: name, Description: def.Description})
	}
	return args, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}
