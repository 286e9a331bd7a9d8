package builder

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlNode is the on-disk shape of a declarative tree document: a list
// of named nodes, nested through "children". A node with children (or an
// explicit "branch: true") becomes a branch.
type yamlNode struct {
	Name     string     `yaml:"name"`
	Branch   bool       `yaml:"branch"`
	Children []yamlNode `yaml:"children"`
}

// FromYAML reads a declarative tree document and returns the top-level
// specs, with string payloads. Payloads are the slash-joined path of
// names from the document root, so sibling subtrees may reuse names
// without colliding.
func FromYAML(r io.Reader) ([]Spec[string], error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tree document: %w", err)
	}
	var doc []yamlNode
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse tree document: %w", err)
	}
	return compile(doc, "")
}

// FromYAMLFile is FromYAML over a file path.
func FromYAMLFile(path string) ([]Spec[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree document: %w", err)
	}
	defer f.Close()
	return FromYAML(f)
}

func compile(nodes []yamlNode, prefix string) ([]Spec[string], error) {
	specs := make([]Spec[string], 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("node under %q has no name", prefix)
		}
		if seen[n.Name] {
			return nil, fmt.Errorf("duplicate sibling %q under %q", n.Name, prefix)
		}
		seen[n.Name] = true

		payload := n.Name
		if prefix != "" {
			payload = prefix + "/" + n.Name
		}
		spec := Spec[string]{
			Data:   payload,
			Name:   n.Name,
			Branch: n.Branch || len(n.Children) > 0,
		}
		if len(n.Children) > 0 {
			children, err := compile(n.Children, payload)
			if err != nil {
				return nil, err
			}
			spec.Children = children
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
