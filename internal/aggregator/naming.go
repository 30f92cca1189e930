package aggregator

import (
	"strings"
)

// Separator joins a backend name and an action into a qualified tool name.
// Backend names never contain it, so splitting on the first occurrence is
// unambiguous.
const Separator = "_"

// ResourceScheme prefixes every aggregated resource URI.
const ResourceScheme = "repo://"

// Action is a tool action every running backend exposes.
type Action string

const (
	ActionSearch Action = "search"
	ActionList   Action = "list"
)

// Actions lists the recognized actions in listing order.
var Actions = []Action{ActionSearch, ActionList}

// ParseAction maps a string to a recognized Action.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// QualifiedName returns "<backend>_<action>".
func QualifiedName(backend string, action Action) string {
	return backend + Separator + string(action)
}

// SplitQualifiedName splits a tool name on the first separator. ok is false
// when the name has no separator or an empty backend part.
func SplitQualifiedName(name string) (backend, action string, ok bool) {
	backend, action, found := strings.Cut(name, Separator)
	if !found || backend == "" {
		return "", "", false
	}
	return backend, action, true
}

// ResourceURI returns the root resource URI of a backend.
func ResourceURI(backend string) string {
	return ResourceScheme + backend + "/"
}

// ParseResourceURI splits "repo://<backend>/<path>" into the backend name and
// an absolute path. The scheme is optional and the path defaults to "/".
// Parsing never fails: a URI without a backend part yields an empty backend,
// and whether the backend exists is not checked here.
func ParseResourceURI(uri string) (backend, path string) {
	rest := strings.TrimPrefix(uri, ResourceScheme)
	rest = strings.TrimLeft(rest, "/")

	backend, path, _ = strings.Cut(rest, "/")
	return backend, "/" + path
}
