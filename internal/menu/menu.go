// Package menu holds the FAQ/menu tree shown to users outside of intake.
// The tree is loaded once at startup into an immutable typed structure;
// node variants are fixed, not user-configurable.
package menu

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeKind discriminates menu node variants.
type NodeKind string

const (
	KindAnswer  NodeKind = "answer"
	KindSubmenu NodeKind = "submenu"
	KindLink    NodeKind = "link"
	KindFile    NodeKind = "file"
	KindSubject NodeKind = "subject"
)

// Node is one entry of the menu tree. The kind decides which fields apply:
// answer nodes reply with text, submenu nodes open their children, link
// nodes open a URL, file nodes send a document, subject nodes set the
// ticket category and prompt for a description.
type Node struct {
	Key      string
	Label    string
	Kind     NodeKind
	Answer   string
	Link     string
	File     string
	Subject  string
	Children []*Node
}

// rawNode mirrors the YAML shape before variant resolution.
type rawNode struct {
	Label   string    `yaml:"label"`
	Answer  string    `yaml:"answer"`
	Link    string    `yaml:"link"`
	File    string    `yaml:"file"`
	Subject string    `yaml:"subject"`
	Items   yaml.Node `yaml:"items"`
}

// Menu is the immutable root of the tree.
type Menu struct {
	Title string
	Root  []*Node
}

type rawMenu struct {
	Title string    `yaml:"title"`
	Items yaml.Node `yaml:"items"`
}

// Load reads and resolves the menu file.
func Load(path string) (*Menu, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	return Parse(raw)
}

// Parse resolves YAML content into a typed menu tree.
func Parse(raw []byte) (*Menu, error) {
	var doc rawMenu
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	root, err := resolveItems(&doc.Items)
	if err != nil {
		return nil, err
	}
	return &Menu{Title: doc.Title, Root: root}, nil
}

// resolveItems walks a YAML mapping in document order so button layout is
// stable across restarts.
func resolveItems(items *yaml.Node) ([]*Node, error) {
	if items == nil || items.Kind == 0 {
		return nil, nil
	}
	if items.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("menu items must be a mapping, got %v", items.Kind)
	}
	nodes := make([]*Node, 0, len(items.Content)/2)
	for i := 0; i+1 < len(items.Content); i += 2 {
		key := items.Content[i].Value
		var raw rawNode
		if err := items.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("menu item %q: %w", key, err)
		}
		node, err := resolveNode(key, &raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func resolveNode(key string, raw *rawNode) (*Node, error) {
	if strings.TrimSpace(raw.Label) == "" {
		return nil, fmt.Errorf("menu item %q: label required", key)
	}
	node := &Node{Key: key, Label: raw.Label}
	switch {
	case raw.Link != "":
		node.Kind = KindLink
		node.Link = raw.Link
	case raw.File != "":
		node.Kind = KindFile
		node.File = raw.File
		node.Answer = raw.Answer
	case raw.Subject != "":
		node.Kind = KindSubject
		node.Subject = raw.Subject
		node.Answer = raw.Answer
	case raw.Items.Kind != 0:
		node.Kind = KindSubmenu
		children, err := resolveItems(&raw.Items)
		if err != nil {
			return nil, err
		}
		node.Children = children
		node.Answer = raw.Answer
	case raw.Answer != "":
		node.Kind = KindAnswer
		node.Answer = raw.Answer
	default:
		return nil, fmt.Errorf("menu item %q: unrecognized variant", key)
	}
	return node, nil
}

// Find walks a dot-separated path of keys from the root.
func (m *Menu) Find(path string) *Node {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	nodes := m.Root
	var found *Node
	for _, part := range parts {
		found = nil
		for _, node := range nodes {
			if node.Key == part {
				found = node
				break
			}
		}
		if found == nil {
			return nil
		}
		nodes = found.Children
	}
	return found
}
