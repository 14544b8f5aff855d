package main

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

func (g *Globals) encode(v any) error {
	switch g.Format {
	case "yaml":
		return g.encodeYAML(v)
	default:
		return g.encodeJSON(v)
	}
}

func (g *Globals) encodeJSON(v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// encodeYAML goes through JSON first so that values with custom JSON
// marshalling keep their field names and member order.
func (g *Globals) encodeYAML(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	enc := yaml.NewEncoder(g.Out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}
