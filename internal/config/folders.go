package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// Folders is the folder to schema mapping in the order it appears in the
// file. A folder without a value loads into the default schema:
//
//	folders:
//	  crm: crm_raw
//	  erp: erp_raw
//	  scratch:
type Folders []csvload.FolderMapping

// UnmarshalYAML decodes a mapping node while keeping key order.
func (f *Folders) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: folders must be a mapping of folder: schema", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	out := make(Folders, 0, len(value.Content)/2)

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		var folder, schema string
		if err := key.Decode(&folder); err != nil {
			return fmt.Errorf("line %d: invalid folder name: %w", key.Line, err)
		}
		if val.Tag != "!!null" {
			if err := val.Decode(&schema); err != nil {
				return fmt.Errorf("line %d: invalid schema for folder %q: %w", val.Line, folder, err)
			}
		}

		if seen[folder] {
			return fmt.Errorf("line %d: folder %q is mapped more than once", key.Line, folder)
		}
		seen[folder] = true
		out = append(out, csvload.FolderMapping{Folder: folder, Schema: schema})
	}

	*f = out
	return nil
}

// MarshalYAML writes the mapping back in order.
func (f Folders) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, m := range f {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Folder},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Schema},
		)
	}
	return node, nil
}
