package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fractary/forge/internal/errdefs"
)

//go:embed schema/registry.schema.json
var registrySchemaBytes []byte

//go:embed schema/plugin.schema.json
var pluginSchemaBytes []byte

var (
	compileOnce    sync.Once
	compileErr     error
	registrySchema *jsonschema.Schema
	pluginSchema   *jsonschema.Schema
	printer        = message.NewPrinter(language.English)
)

// compileSchemas compiles both embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()

		for name, raw := range map[string][]byte{
			"registry.schema.json": registrySchemaBytes,
			"plugin.schema.json":   pluginSchemaBytes,
		} {
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				compileErr = fmt.Errorf("unmarshaling %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("adding schema resource %s: %w", name, err)
				return
			}
		}

		registrySchema, compileErr = c.Compile("registry.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling registry schema: %w", compileErr)
			return
		}
		pluginSchema, compileErr = c.Compile("plugin.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling plugin schema: %w", compileErr)
		}
	})
	return compileErr
}

// ValidateRegistryManifest checks raw JSON bytes against the registry
// manifest schema. A schema violation is returned as *errdefs.ManifestError.
func ValidateRegistryManifest(data []byte, source string) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(registrySchema, data, source)
}

// ValidatePluginManifest checks raw JSON bytes against the plugin
// manifest schema.
func ValidatePluginManifest(data []byte, source string) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(pluginSchema, data, source)
}

func validate(schema *jsonschema.Schema, data []byte, source string) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &errdefs.ManifestError{Source: source, Issues: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("validating manifest from %s: %w", source, err)
	}

	return &errdefs.ManifestError{Source: source, Issues: collectIssues(ve)}
}

// collectIssues walks the validation error tree and renders leaf errors
// as "<path>: <message>" strings, deduplicated.
func collectIssues(ve *jsonschema.ValidationError) []string {
	var issues []string
	walkIssues(ve, &issues)
	if len(issues) == 0 {
		return []string{ve.Error()}
	}

	seen := make(map[string]bool)
	var out []string
	for _, issue := range issues {
		if !seen[issue] {
			seen[issue] = true
			out = append(out, issue)
		}
	}
	return out
}

func walkIssues(ve *jsonschema.ValidationError, issues *[]string) {
	if len(ve.Causes) == 0 {
		if ve.ErrorKind == nil {
			return
		}
		kwPath := ve.ErrorKind.KeywordPath()
		if len(kwPath) > 0 {
			switch kwPath[len(kwPath)-1] {
			case "oneOf", "allOf", "$ref":
				return // container errors carry no useful detail
			}
		}

		path := "/" + strings.Join(ve.InstanceLocation, "/")
		if len(ve.InstanceLocation) == 0 {
			path = "(root)"
		}
		*issues = append(*issues, fmt.Sprintf("%s: %s", path, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, cause := range ve.Causes {
		walkIssues(cause, issues)
	}
}
