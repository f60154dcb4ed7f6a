package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/thoth-station/adviser/pkg/config"
)

// Definition describes a unit type the builder can include in a pipeline.
type Definition struct {
	// Name identifies the unit in pipeline documents. It defaults to the Go
	// type name of the value returned by New.
	Name string

	// Kind is the role of the unit.
	Kind Kind

	// Description is a one-line summary shown by tooling.
	Description string

	// Defaults is the configuration every instance starts from.
	Defaults Configuration

	// Schema is the body of a closed CUE struct validating the merged
	// configuration, e.g. `x: number & >=-1 & <=1`. Empty disables
	// validation.
	Schema string

	// ShouldInclude returns the ordered configurations this definition wants
	// registered given the builder context. nil or empty means "not now";
	// []Configuration{{}} means "include once with defaults". The builder
	// registers item k, where k is the number of instances already
	// registered, at most one per round. It must not modify the context.
	// A nil ShouldInclude is never included automatically.
	ShouldInclude func(bc *BuilderContext) []Configuration

	// New returns a fresh, unconfigured unit.
	New func() Unit
}

// Catalogue is the set of known unit definitions.
type Catalogue struct {
	schemas *config.SchemaRegistry
	byName  map[string]*Definition
	byKind  map[Kind][]*Definition
}

// NewCatalogue creates an empty catalogue. Unit configuration schemas are
// registered in schemas; a nil registry gets a fresh one.
func NewCatalogue(schemas *config.SchemaRegistry) *Catalogue {
	if schemas == nil {
		schemas = config.NewSchemaRegistry()
	}
	return &Catalogue{
		schemas: schemas,
		byName:  make(map[string]*Definition),
		byKind:  make(map[Kind][]*Definition),
	}
}

// Schemas returns the schema registry of the catalogue.
func (c *Catalogue) Schemas() *config.SchemaRegistry {
	return c.schemas
}

// Register adds definitions in order. Registration order within a kind is
// the order the builder polls definitions in.
func (c *Catalogue) Register(defs ...Definition) error {
	for i := range defs {
		def := defs[i]
		if def.New == nil {
			return NewInternalError(fmt.Sprintf("definition %q has no constructor", def.Name), nil).
				WithCode(ErrCodeUnknownKind)
		}
		if err := def.Kind.Validate(); err != nil {
			return NewInternalError("invalid unit definition", err).
				WithCode(ErrCodeUnknownKind).WithUnit(def.Name, def.Kind)
		}

		probe := def.New()
		if def.Name == "" {
			def.Name = typeName(probe)
		}
		if !checkKind(probe, def.Kind) {
			return NewInternalError(fmt.Sprintf("%T does not implement the %s contract", probe, def.Kind), nil).
				WithCode(ErrCodeKindMismatch).WithUnit(def.Name, def.Kind)
		}
		if _, exists := c.byName[def.Name]; exists {
			return NewInternalError("unit registered twice", nil).
				WithCode(ErrCodeDuplicateUnit).WithUnit(def.Name, def.Kind)
		}

		if def.Schema != "" {
			if err := c.schemas.RegisterUnitSchema(def.Name, def.Schema); err != nil {
				return NewInternalError("invalid unit schema", err).WithUnit(def.Name, def.Kind)
			}
		}

		c.byName[def.Name] = &def
		c.byKind[def.Kind] = append(c.byKind[def.Kind], &def)
	}
	return nil
}

// MustRegister is like Register but panics on error. Meant for package-level
// catalogue setup.
func (c *Catalogue) MustRegister(defs ...Definition) {
	if err := c.Register(defs...); err != nil {
		panic(err)
	}
}

// Lookup finds a definition by exact name.
func (c *Catalogue) Lookup(name string) (*Definition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Definitions returns all definitions in polling order: by kind (boot,
// pseudonym, sieve, step, stride, wrap), then by registration order.
func (c *Catalogue) Definitions() []*Definition {
	var out []*Definition
	for _, kind := range Kinds {
		out = append(out, c.byKind[kind]...)
	}
	return out
}

// DefinitionsOf returns the definitions of one kind in registration order.
func (c *Catalogue) DefinitionsOf(kind Kind) []*Definition {
	return slices.Clone(c.byKind[kind])
}

// Len returns the number of registered definitions.
func (c *Catalogue) Len() int {
	return len(c.byName)
}

// Instantiate creates a unit from its definition: defaults first, then the
// override values, validated against the unit schema. A validation failure
// is a configuration error carrying override verbatim.
func (c *Catalogue) Instantiate(def *Definition, override Configuration) (Unit, error) {
	u := def.New()
	b := u.base()
	b.name = def.Name
	b.kind = def.Kind
	b.configuration = def.Defaults.Clone()
	if b.configuration == nil {
		b.configuration = Configuration{}
	}

	name := def.Name
	b.validate = func(cfg Configuration) error {
		return c.schemas.ValidateUnitConfiguration(context.Background(), name, cfg)
	}

	if err := u.UpdateConfiguration(override); err != nil {
		return nil, NewConfigurationError(def.Name, override, err).WithKind(def.Kind)
	}
	return u, nil
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
