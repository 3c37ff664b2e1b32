package denoiser

import (
	"slices"
)

// DefaultModelName is the model used when nothing else is selected, and the
// fallback for unknown model names.
const DefaultModelName = "default"

type catalogEntry struct {
	Name string
	Key  string
}

var catalog = []catalogEntry{
	{Name: DefaultModelName, Key: "orig"},
	{Name: "beguiling-drafter-2018-08-30", Key: "bd"},
	{Name: "conjoined-burgers-2018-08-28", Key: "cb"},
	{Name: "leavened-quisling-2018-08-31", Key: "lq"},
	{Name: "marathon-prescription-2018-08-29", Key: "mp"},
	{Name: "somnolent-hogwash-2018-09-01", Key: "sh"},
}

var catalogKeys = func() map[string]string {
	m := make(map[string]string, len(catalog))
	for _, entry := range catalog {
		m[entry.Name] = entry.Key
	}
	return m
}()

// AvailableModels returns the human-readable model names, DefaultModelName first.
func AvailableModels() []string {
	names := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		names = append(names, entry.Name)
	}
	return names
}

// ModelKey returns the internal model key of the model with the given name.
func ModelKey(name string) (string, bool) {
	key, ok := catalogKeys[name]
	return key, ok
}

// IsKnownModel reports whether the name is present in the catalog.
func IsKnownModel(name string) bool {
	return slices.ContainsFunc(catalog, func(entry catalogEntry) bool {
		return entry.Name == name
	})
}

// ResolveModel maps a model name to a factory model. Unknown names, and
// keys the factory does not have, resolve to nil (the built-in default).
func ResolveModel(factory Factory, name string) Model {
	key, ok := ModelKey(name)
	if !ok {
		return nil
	}
	model, ok := factory.LookupModel(key)
	if !ok {
		return nil
	}
	return model
}

// CanonicalName returns the name itself if it is in the catalog, and
// DefaultModelName otherwise: the model unknown names resolve to.
func CanonicalName(name string) string {
	if IsKnownModel(name) {
		return name
	}
	return DefaultModelName
}
