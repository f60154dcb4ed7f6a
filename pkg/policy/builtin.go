package policy

import "time"

// BuiltinPolicies returns the policies every engine starts with.
func BuiltinPolicies() []Policy {
	return []Policy{
		stablePrereleasePolicy(),
		packageIndexPolicy(),
		pythonVersionPolicy(),
	}
}

// stablePrereleasePolicy rejects pre-releases in stable recommendations.
func stablePrereleasePolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "stable-prerelease",
		Description: "Stable recommendations must not pin pre-release versions",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"versions", "stability"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package thoth.policies.prerelease

import rego.v1

deny contains violation if {
	input.context.recommendation_type == "stable"
	pkg := input.packages[_]
	regex.match("(?i)[0-9.](a|b|c|rc|alpha|beta|pre|preview|dev)[0-9]*", pkg.version)
	violation := {
		"message": sprintf("Package %s in version %s is a pre-release", [pkg.name, pkg.version]),
		"package": pkg.name,
	}
}
`,
	}
}

// packageIndexPolicy flags packages without a source index.
func packageIndexPolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "package-index",
		Description: "Pinned packages should record the index they come from",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"provenance"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package thoth.policies.index

import rego.v1

deny contains violation if {
	pkg := input.packages[_]
	object.get(pkg, "index", "") == ""
	violation := {
		"message": sprintf("Package %s has no source index", [pkg.name]),
		"package": pkg.name,
	}
}
`,
	}
}

// pythonVersionPolicy warns about end-of-life interpreters.
func pythonVersionPolicy() Policy {
	now := time.Now()
	return Policy{
		Name:        "python-version",
		Description: "Warns when the runtime environment targets an end-of-life Python",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"runtime"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Rego: `package thoth.policies.python

import rego.v1

eol := {"2.7", "3.5", "3.6", "3.7", "3.8"}

deny contains violation if {
	version := input.runtime_environment.python_version
	eol[version]
	violation := {
		"message": sprintf("Python %s is end-of-life", [version]),
		"link": "https://devguide.python.org/versions/",
	}
}
`,
	}
}
