// Package policy evaluates Open Policy Agent (OPA) Rego rules against
// resolver states.
//
// Every policy is a Rego module with a deny rule. Each deny entry is either
// a message string or an object with message, severity, package and link
// keys. Entries of severity error or critical reject the state; the rest are
// reported as warnings.
//
// Creating an engine and evaluating a state:
//
//	engine, err := policy.NewEngine(logger)
//	if err != nil {
//	    return err
//	}
//
//	input := policy.NewStateInput(state, &proj.RuntimeEnvironment, policy.InputContext{
//	    RecommendationType: "stable",
//	})
//	result, err := engine.Evaluate(ctx, input)
//	if err != nil {
//	    return err
//	}
//	if !result.Allowed {
//	    for _, v := range result.Violations {
//	        fmt.Printf("%s: %s\n", v.Policy, v.Message)
//	    }
//	}
//
// # Built-in Policies
//
//  1. stable-prerelease - rejects pre-release pins in stable recommendations
//  2. package-index - warns about packages without a source index
//  3. python-version - warns about end-of-life Python runtimes
//
// # Custom Policies
//
// Custom policies are loaded from .rego files (named after the file) or
// .json policy definitions:
//
//	package thoth.custom.urllib3
//
//	import rego.v1
//
//	deny contains violation if {
//	    pkg := input.packages[_]
//	    pkg.name == "urllib3"
//	    startswith(pkg.version, "1.")
//	    violation := {
//	        "message": "urllib3 1.x is not allowed",
//	        "package": pkg.name,
//	    }
//	}
//
// # Hot Reload
//
// The loader watches policy paths and hands the reloaded set to a callback
// once changes settle:
//
//	loader := policy.NewLoader(logger, policy.WithDebounce(time.Second))
//	err = loader.Watch(ctx, paths, func(policies []policy.Policy) error {
//	    return engine.ReplacePolicies(ctx, policies)
//	})
package policy
