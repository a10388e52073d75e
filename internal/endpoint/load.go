package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.yaml.in/yaml/v3"
)

// ConfigLoadError reports an endpoint file that is missing, unreadable or
// malformed. It is fatal at startup.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load endpoints from %q: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// Load reads and parses the endpoint file at path.
func Load(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return ds, nil
}

type rawDescriptor struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
	Body    yaml.Node         `yaml:"body"`
}

// Parse decodes a YAML document holding either a sequence of descriptors or
// a mapping of name to descriptor. File order is preserved in both shapes.
func Parse(data []byte) ([]Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("no endpoints defined")
	}
	root := resolve(doc.Content[0])

	var (
		out  []Descriptor
		errs error
	)
	add := func(n *yaml.Node, pos, fallbackName string) {
		d, err := decode(n, fallbackName)
		if err == nil {
			err = d.Validate()
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("endpoint %s: %w", pos, err))
			return
		}
		out = append(out, d)
	}

	switch root.Kind {
	case yaml.SequenceNode:
		for i, n := range root.Content {
			add(n, fmt.Sprintf("#%d", i), "")
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i].Value
			add(root.Content[i+1], fmt.Sprintf("%q", key), key)
		}
	default:
		return nil, fmt.Errorf("top level must be a sequence or a mapping of endpoints (line %d)", root.Line)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func decode(n *yaml.Node, fallbackName string) (Descriptor, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return Descriptor{}, fmt.Errorf("must be a mapping (line %d)", n.Line)
	}
	var raw rawDescriptor
	if err := n.Decode(&raw); err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{
		Name:    raw.Name,
		URL:     raw.URL,
		Method:  strings.ToUpper(strings.TrimSpace(raw.Method)),
		Headers: make(map[string]string, len(raw.Headers)),
	}
	if d.Name == "" {
		d.Name = fallbackName
	}
	if d.Method == "" {
		d.Method = DefaultMethod
	}
	for k, v := range raw.Headers {
		d.Headers[k] = v
	}
	body, contentType, err := encodeBody(&raw.Body)
	if err != nil {
		return Descriptor{}, fmt.Errorf("body: %w", err)
	}
	d.Body = body
	if contentType != "" && !hasHeader(d.Headers, "Content-Type") {
		d.Headers["Content-Type"] = contentType
	}
	return d, nil
}

// encodeBody turns the YAML body into wire bytes: strings are sent as is,
// flat mappings are form encoded and sequences are sent as JSON.
func encodeBody(n *yaml.Node) ([]byte, string, error) {
	n = resolve(n)
	switch n.Kind {
	case 0:
		return nil, "", nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, "", nil
		}
		return []byte(n.Value), "", nil
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			return nil, "", nil
		}
		form := url.Values{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], resolve(n.Content[i+1])
			if v.Kind != yaml.ScalarNode {
				return nil, "", fmt.Errorf("field %q: nested values cannot be form encoded", k.Value)
			}
			form.Add(k.Value, v.Value)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	case yaml.SequenceNode:
		var v []any
		if err := n.Decode(&v); err != nil {
			return nil, "", err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	}
	return nil, "", fmt.Errorf("unsupported body (line %d)", n.Line)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
