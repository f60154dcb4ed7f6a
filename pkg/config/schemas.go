package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Built-in schema names.
const (
	SchemaPipeline = "pipeline"
	SchemaProject  = "project"
)

// unitSchemaPrefix namespaces unit configuration schemas in the registry.
const unitSchemaPrefix = "unit:"

// SchemaRegistry manages CUE schemas for validation.
//
// A cue.Context is not safe for concurrent use, so every compilation and
// validation happens under the registry lock.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.Mutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	// Built-in schemas are constants; a compile failure is a programming error.
	if err := sr.RegisterSchema(SchemaPipeline, builtinPipelineSchema, "#Pipeline"); err != nil {
		panic(err)
	}
	if err := sr.RegisterSchema(SchemaProject, builtinProjectSchema, "#Project"); err != nil {
		panic(err)
	}

	return sr
}

// RegisterSchema compiles a CUE source and registers the value found at
// definition (e.g. "#Pipeline") under name. An empty definition registers the
// whole compiled value.
func (sr *SchemaRegistry) RegisterSchema(name, schema, definition string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	return sr.register(name, schema, definition)
}

func (sr *SchemaRegistry) register(name, schema, definition string) error {
	val := sr.ctx.CompileString(schema, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	if definition != "" {
		val = val.LookupPath(cue.ParsePath(definition))
		if !val.Exists() {
			return fmt.Errorf("schema %s does not define %s", name, definition)
		}
		if err := val.Err(); err != nil {
			return fmt.Errorf("invalid definition %s in schema %s: %w", definition, name, err)
		}
	}

	sr.schemas[name] = val
	return nil
}

// RegisterUnitSchema registers the configuration schema of a pipeline unit.
//
// The schema is the body of a closed CUE struct, for example
//
//	x: number & >=-1 & <=1
//	enabled?: bool
//
// so configuration keys the schema does not mention are rejected.
func (sr *SchemaRegistry) RegisterUnitSchema(unit, body string) error {
	src := fmt.Sprintf("#Configuration: {\n%s\n}\n", body)

	sr.mu.Lock()
	defer sr.mu.Unlock()

	return sr.register(unitSchemaPrefix+unit, src, "#Configuration")
}

// HasUnitSchema reports whether a configuration schema is registered for unit.
func (sr *SchemaRegistry) HasUnitSchema(unit string) bool {
	_, ok := sr.GetSchema(unitSchemaPrefix + unit)
	return ok
}

// ValidateUnitConfiguration validates a unit configuration against the schema
// registered for unit. Units without a schema accept any configuration.
func (sr *SchemaRegistry) ValidateUnitConfiguration(ctx context.Context, unit string, configuration map[string]any) error {
	if !sr.HasUnitSchema(unit) {
		return nil
	}
	return sr.ValidateAgainstSchema(ctx, unitSchemaPrefix+unit, configuration)
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	schema, ok := sr.schemas[schemaName]
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ListSchemas returns all registered schema names, sorted.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePipeline validates a decoded pipeline document.
func (sr *SchemaRegistry) ValidatePipeline(ctx context.Context, document any) error {
	return sr.ValidateAgainstSchema(ctx, SchemaPipeline, document)
}

// ValidateProject validates a decoded project descriptor.
func (sr *SchemaRegistry) ValidateProject(ctx context.Context, project any) error {
	return sr.ValidateAgainstSchema(ctx, SchemaProject, project)
}

// Built-in schema definitions

const builtinPipelineSchema = `
// Entry names one unit and its configuration overrides.
#Entry: {
	name: string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	// An empty "configuration:" key decodes as null and means defaults.
	configuration?: null | {[string]: _}
}

// Pipeline lists the units of a pipeline per kind, in execution order.
#Pipeline: {
	boots?:      null | [...#Entry]
	pseudonyms?: null | [...#Entry]
	sieves?:     null | [...#Entry]
	steps?:      null | [...#Entry]
	strides?:    null | [...#Entry]
	wraps?:      null | [...#Entry]
}
`

const builtinProjectSchema = `
#Package: {
	name:     string & != ""
	version:  string & != ""
	index:    string & != ""
	develop?: bool
}

#RuntimeEnvironment: {
	name?: string
	operating_system?: {
		name?:    string
		version?: string
	}
	python_version?: string & =~"^[0-9]+\\.[0-9]+$"
	hardware?: {
		cpu_family?: int
		cpu_model?:  int
		gpu_model?:  string
	}
	cuda_version?:  string
	cudnn_version?: string
	mkl_version?:   string
	base_image?:    string
	platform?:      string
}

#Project: {
	name?: string
	requirements: [...string]
	requirements_locked?: [...#Package]
	indexes?: [...string]
	runtime_environment?: #RuntimeEnvironment
	library_usage?: {[string]: [...string]}
}
`
