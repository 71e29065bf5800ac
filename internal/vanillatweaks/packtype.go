package vanillatweaks

import (
	"fmt"
	"strings"
)

// PackType is one of the three kinds of content offered by Vanilla Tweaks.
type PackType string

const (
	Datapacks      PackType = "datapacks"
	ResourcePacks  PackType = "resourcepacks"
	CraftingTweaks PackType = "craftingtweaks"
)

// DefaultPackType is used when no type is requested.
const DefaultPackType = Datapacks

// PackTypes lists the supported types in display order.
var PackTypes = []PackType{Datapacks, ResourcePacks, CraftingTweaks}

// ParsePackType parses s case-insensitively. An empty string yields
// DefaultPackType.
func ParsePackType(s string) (PackType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPackType, nil
	}
	for _, pt := range PackTypes {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", fmt.Errorf("%w: %q (must be datapacks, resourcepacks or craftingtweaks)", ErrInvalidPackType, s)
}

// PathSegment is the URL path segment used by the upstream site.
func (p PackType) PathSegment() string {
	return string(p)
}

// Prefix is the short prefix of the catalog JSON filename.
func (p PackType) Prefix() string {
	switch p {
	case ResourcePacks:
		return "rp"
	case CraftingTweaks:
		return "ct"
	default:
		return "dp"
	}
}

// SingleArchive reports whether the generated archive is itself the unit
// to install rather than a container to extract.
func (p PackType) SingleArchive() bool {
	return p == CraftingTweaks
}

func (p PackType) String() string {
	return string(p)
}
