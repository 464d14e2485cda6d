package configtree

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// The on-disk form of a tree is a nested YAML mapping where leaves are
// empty mappings. This keeps snapshots human-diffable and round-trips
// through the same structure the CLI builds.

// MarshalYAML implements yaml.Marshaler.
func (n *Node) MarshalYAML() (interface{}, error) {
	return n.toMap(), nil
}

func (n *Node) toMap() map[string]interface{} {
	m := make(map[string]interface{}, len(n.children))
	for name, child := range n.children {
		if child.IsLeaf() {
			m[name] = nil
		} else {
			m[name] = child.toMap()
		}
	}
	return m
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[interface{}]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	n.children = make(map[string]*Node)
	return n.fromMap(raw)
}

func (n *Node) fromMap(raw map[interface{}]interface{}) error {
	for k, v := range raw {
		name := fmt.Sprintf("%v", k)
		child := NewNode()
		if sub, ok := v.(map[interface{}]interface{}); ok {
			if err := child.fromMap(sub); err != nil {
				return err
			}
		} else if v != nil {
			// Scalar values become a childless child, matching Set semantics.
			child.Set(fmt.Sprintf("%v", v))
		}
		n.children[name] = child
	}
	return nil
}

// LoadFile reads a tree snapshot from a YAML file. A missing file yields an
// empty tree so a fresh system starts from nothing configured.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewNode(), nil
		}
		return nil, fmt.Errorf("read tree snapshot: %w", err)
	}
	root := NewNode()
	if len(data) == 0 {
		return root, nil
	}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("parse tree snapshot %s: %w", path, err)
	}
	return root, nil
}

// SaveFile writes the tree snapshot to a YAML file.
func SaveFile(path string, root *Node) error {
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal tree snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write tree snapshot %s: %w", path, err)
	}
	return nil
}
