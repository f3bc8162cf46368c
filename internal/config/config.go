// Package config resolves runtime configuration for go-taskist.
//
// Pipeline configuration follows a fixed overlay: an environment variable
// (the option name upper-cased) wins over a caller-supplied override, which
// wins over the built-in default. Resolution is explicit per field since
// the field set is small and static.
package config

import (
	"os"
)

// Defaults for the pipeline configuration.
const (
	DefaultUserID   = "default-user"
	DefaultCategory = "general"
	DefaultRole     = "You are a helpful task management assistant. You help create, organize, and manage the user's ToDo list."
)

// Pipeline is the immutable per-run configuration.
// It is resolved once per invocation and never mutated by pipeline stages.
type Pipeline struct {
	// UserID identifies the task list owner.
	UserID string

	// Category names the sub-list commands operate on.
	Category string

	// Role is the assistant role description echoed to the operator.
	Role string
}

// Overrides carries caller-supplied values for pipeline options.
// Empty fields fall through to the defaults.
type Overrides struct {
	UserID   string
	Category string
	Role     string
}

// Resolve builds a Pipeline configuration from the environment overlaid on
// the given overrides. Recognized variables: USER_ID, TODO_CATEGORY,
// TASKIST_ROLE.
func Resolve(o Overrides) Pipeline {
	return Pipeline{
		UserID:   resolveField("USER_ID", o.UserID, DefaultUserID),
		Category: resolveField("TODO_CATEGORY", o.Category, DefaultCategory),
		Role:     resolveField("TASKIST_ROLE", o.Role, DefaultRole),
	}
}

// resolveField returns the environment value if set and non-empty, else the
// caller override if non-empty, else the default. A variable set to the
// empty string falls through to the override.
func resolveField(envName, override, fallback string) string {
	if v, ok := os.LookupEnv(envName); ok && v != "" {
		return v
	}
	if override != "" {
		return override
	}
	return fallback
}
