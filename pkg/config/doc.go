// Package config provides CUE schema validation and Starlark evaluation for
// the adviser.
//
// # Components
//
// SchemaRegistry: Manages CUE schemas. Built-in schemas validate pipeline
// documents (#Pipeline) and project descriptors (#Project); units register
// their configuration schema as the body of a closed #Configuration struct.
//
// StarlarkEvaluator: Runs Starlark scripts with a timeout. Scripted units use
// EvaluatePredicate, where the script assigns a boolean accept global and an
// optional reason.
//
// # Usage Example
//
//	sr := config.NewSchemaRegistry()
//	if err := sr.RegisterUnitSchema("CutPrereleasesSieve", "enabled?: bool"); err != nil {
//	    return err
//	}
//	err := sr.ValidateUnitConfiguration(ctx, "CutPrereleasesSieve", map[string]any{"enabled": "yes"})
//	// err: validation failed: #Configuration.enabled: conflicting values ...
//
// # Thread Safety
//
// SchemaRegistry serializes access to its CUE context. StarlarkEvaluator is
// stateless and safe for concurrent use; every evaluation gets its own thread.
package config
