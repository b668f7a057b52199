package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/talenthium/patchtree/internal/log"
)

// SaveAuth stores the bearer token under auth.token in the config file.
// Comments and formatting in other sections are preserved by editing the yaml.Node tree.
func SaveAuth(configPath, token string) error {
	if err := saveScalar(configPath, []string{"auth", "token"}, token); err != nil {
		return err
	}
	log.Info(log.CatConfig, "Saved auth token", "path", configPath)
	return nil
}

// SaveThemeMode stores theme.mode in the config file.
func SaveThemeMode(configPath, mode string) error {
	if err := ValidateTheme(ThemeConfig{Mode: mode}); err != nil {
		return err
	}
	return saveScalar(configPath, []string{"theme", "mode"}, mode)
}

// saveScalar sets the scalar at keys (a nested mapping path), creating
// intermediate mappings as needed, and rewrites the file atomically.
func saveScalar(configPath string, keys []string, value string) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from config lookup
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config root must be a mapping")
	}

	node := doc.Content[0]
	for i, key := range keys {
		last := i == len(keys)-1
		child := lookupKey(node, key)
		switch {
		case last && child != nil:
			child.Kind = yaml.ScalarNode
			child.Tag = "!!str"
			child.Value = value
			child.Content = nil
		case last:
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: key},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
			)
		case child == nil || child.Kind != yaml.MappingNode:
			mapping := &yaml.Node{Kind: yaml.MappingNode}
			if child != nil {
				*child = *mapping
				mapping = child
			} else {
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key},
					mapping,
				)
			}
			node = mapping
		default:
			node = child
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// lookupKey returns the value node for key in a mapping node, or nil.
func lookupKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// writeAtomic writes to a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".patchtree.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
