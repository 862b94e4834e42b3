package core

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// PlaygroundVersion is the API version that exposes experimental resources.
const PlaygroundVersion = "playground"

// ApiVersion is a parsed API version such as "v1" or "playground".
type ApiVersion struct {
	raw        string
	ver        *version.Version
	playground bool
}

// ParseApiVersion parses "vN[.M]" versions with go-version. "playground" is accepted as is.
func ParseApiVersion(s string) (*ApiVersion, error) {
	raw := strings.TrimSpace(s)
	if strings.EqualFold(raw, PlaygroundVersion) {
		return &ApiVersion{raw: PlaygroundVersion, playground: true}, nil
	}
	if !strings.HasPrefix(raw, "v") {
		return nil, fmt.Errorf("invalid api version %q: expected vN or %q", s, PlaygroundVersion)
	}
	ver, err := version.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid api version %q: %w", s, err)
	}
	return &ApiVersion{raw: raw, ver: ver}, nil
}

func (v *ApiVersion) String() string {
	return v.raw
}

func (v *ApiVersion) IsPlayground() bool {
	return v.playground
}

// Satisfies reports whether v meets requirement. The requirement is either "playground"
// or a go-version constraint such as ">= 1". Playground satisfies every numeric constraint.
func (v *ApiVersion) Satisfies(requirement string) (bool, error) {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return true, nil
	}
	if strings.EqualFold(requirement, PlaygroundVersion) {
		return v.playground, nil
	}
	constraints, err := version.NewConstraint(requirement)
	if err != nil {
		return false, fmt.Errorf("invalid api version constraint %q: %w", requirement, err)
	}
	if v.playground {
		return true, nil
	}
	return constraints.Check(v.ver), nil
}

// checkApiVersionCompat fails when the session's API version does not satisfy the resource requirement.
func checkApiVersionCompat(r *CogniteResource) error {
	if r.requiredApiVersion == "" {
		return nil
	}
	configured := r.Session().GetConfig().ApiVersion
	current, err := ParseApiVersion(configured)
	if err != nil {
		return err
	}
	ok, err := current.Satisfies(r.requiredApiVersion)
	if err != nil {
		return err
	}
	if !ok {
		return &UnsupportedApiVersionError{
			Resource: r.resourceType,
			Required: r.requiredApiVersion,
			Actual:   configured,
		}
	}
	return nil
}
