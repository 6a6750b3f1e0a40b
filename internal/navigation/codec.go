package navigation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawNode is the object shape Vocs uses for sidebar items.
type rawNode struct {
	Text      *string   `json:"text" yaml:"text"`
	Link      *string   `json:"link,omitempty" yaml:"link,omitempty"`
	Collapsed *bool     `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Items     []rawNode `json:"items,omitempty" yaml:"items,omitempty"`
}

// Warning is a non-fatal finding about a navigation tree.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return w.Path + ": " + w.Message
}

// ParseJSON decodes a tree from its JSON form and validates it.
func ParseJSON(data []byte) (Tree, []Warning, error) {
	var raw []rawNode
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decoding navigation JSON: %w", err)
	}
	return fromRaw(raw)
}

// ParseYAML decodes a tree from its YAML form and validates it.
func ParseYAML(data []byte) (Tree, []Warning, error) {
	var raw []rawNode
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decoding navigation YAML: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw []rawNode) (Tree, []Warning, error) {
	c := &converter{}
	tree := c.convert(raw, "", 0)
	if c.errs.HasErrors() {
		return nil, nil, c.errs.ErrorOrNil()
	}
	if err := Validate(tree); err != nil {
		return nil, nil, err
	}
	return tree, c.warnings, nil
}

type converter struct {
	errs     nodeErrors
	warnings []Warning
}

func (c *converter) convert(raw []rawNode, prefix string, depth int) []Node {
	out := make([]Node, 0, len(raw))
	for i, r := range raw {
		p := ChildPath(prefix, i)
		if depth >= MaxDepth {
			c.errs.add(p, "items", fmt.Sprintf("nesting deeper than %d levels", MaxDepth))
			return out
		}

		var text, link string
		if r.Text != nil {
			text = *r.Text
		}
		if r.Link != nil {
			link = *r.Link
		}

		if len(r.Items) == 0 {
			if r.Collapsed != nil {
				c.warnings = append(c.warnings, Warning{
					Path:    p,
					Message: "collapsed has no effect on an entry without items and was dropped",
				})
			}
			out = append(out, Leaf{Text: text, Link: link})
			continue
		}

		out = append(out, &Branch{
			Text:      text,
			Link:      link,
			Collapsed: r.Collapsed,
			Items:     c.convert(r.Items, p, depth+1),
		})
	}
	return out
}

func toRaw(nodes []Node) []rawNode {
	out := make([]rawNode, 0, len(nodes))
	for _, n := range nodes {
		text := n.Label()
		r := rawNode{Text: &text}
		if href := n.Href(); href != "" {
			r.Link = &href
		}
		if b, ok := n.(*Branch); ok {
			r.Collapsed = b.Collapsed
			r.Items = toRaw(b.Items)
		}
		out = append(out, r)
	}
	return out
}

// MarshalJSON encodes the tree in the Vocs sidebar shape. Labels are not
// HTML-escaped, so "Starters & Templates" stays readable in generated code.
func (t Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toRaw(t)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes and validates a tree. Warnings are discarded; use
// ParseJSON to receive them.
func (t *Tree) UnmarshalJSON(data []byte) error {
	tree, _, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// MarshalYAML encodes the tree in the Vocs sidebar shape.
func (t Tree) MarshalYAML() (interface{}, error) {
	return toRaw(t), nil
}

// UnmarshalYAML decodes and validates a tree.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	var raw []rawNode
	if err := value.Decode(&raw); err != nil {
		return err
	}
	tree, _, err := fromRaw(raw)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}
