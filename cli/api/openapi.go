package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"gopkg.in/yaml.v3"

	"github.com/oaiiae/event-contacts/router"
)

// NewOpenAPI describes the endpoints served by [NewRouter].
func NewOpenAPI(options *RouterOptions, title, version string) *huma.OpenAPI {
	api := router.NewAPI(http.NewServeMux(), title, version)
	endpoints(options, &Services{}, nil)(api)
	return api.OpenAPI()
}

// WriteOpenAPI writes spec as indented JSON or, when asYAML is set, as block style YAML.
func WriteOpenAPI(w io.Writer, spec *huma.OpenAPI, asYAML bool) error {
	b, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding openapi: %w", err)
	}
	if !asYAML {
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}

	// JSON is valid YAML: decoding into a node keeps the key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("converting openapi: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding openapi: %w", err)
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style &^= yaml.FlowStyle
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
