package catalog

import (
	"errors"

	"strconv"

	"github.com/gosimple/slug"
)

// MakeSlug turns a name into its deterministic lower-kebab form.
func MakeSlug(name string) string {
	return slug.Make(name)
}

// EnsureUniqueSlug returns the deterministic slug for name, or a suffixed
// variant ("genesis-2", "genesis-3", ...) when the slug is already held by
// another record. Collisions mean near-identical names of records that did
// not reconcile to the same entity, so failing is not an option here.
func EnsureUniqueSlug(name string, isTaken func(slug string) (bool, error)) (string, error) {
	base := MakeSlug(name)
	if base == "" {
		return "", errors.New("cannot build a slug from an empty name")
	}
	candidate := base
	for i := 2; i <= 1000; i++ {
		taken, err := isTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", errors.New("could not find a free slug for " + name)
}
