// Generates JSON schemas of the objects emitted by the JSON renderers.

package render

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/adamwulf/hunch-sub000/internal/notion"
)

var schemaKinds = map[string]func() any{
	"block":    func() any { return &notion.Block{} },
	"comment":  func() any { return &notion.Comment{} },
	"database": func() any { return &notion.Database{} },
	"page":     func() any { return &notion.Page{} },
	"property": func() any { return &notion.PropertyValue{} },
	"user":     func() any { return &notion.User{} },
}

// SchemaKinds returns the kinds accepted by Schema, sorted.
func SchemaKinds() []string {
	kinds := make([]string, 0, len(schemaKinds))
	for k := range schemaKinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Schema returns the indented JSON schema of objects of kind.
func Schema(kind string) ([]byte, error) {
	newValue, ok := schemaKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q, want one of %s", kind, strings.Join(SchemaKinds(), ", "))
	}
	r := jsonschema.Reflector{AllowAdditionalProperties: true}
	s := r.Reflect(newValue())
	s.Title = "Notion " + kind
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return data, nil
}
