package vanillatweaks

import (
	"slices"
	"sort"
	"strings"
)

// Slug normalizes a category display name into the form the archive
// endpoint expects: lowercase, with spaces and slashes replaced by hyphens.
//
//	"Quality of Life"   -> "quality-of-life"
//	"Adventure/Utility" -> "adventure-utility"
func Slug(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '-'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// Selection maps a category (display name or slug) to the pack names the
// user checked. A category with no packs must not be present.
type Selection map[string][]string

// Add selects pack under category.
func (s Selection) Add(category, pack string) {
	if pack == "" || slices.Contains(s[category], pack) {
		return
	}
	s[category] = append(s[category], pack)
}

// Remove deselects pack, deleting the category once it is empty.
func (s Selection) Remove(category, pack string) {
	packs, ok := s[category]
	if !ok {
		return
	}
	packs = slices.DeleteFunc(packs, func(p string) bool { return p == pack })
	if len(packs) == 0 {
		delete(s, category)
		return
	}
	s[category] = packs
}

// Count returns the number of selected packs across all categories.
func (s Selection) Count() int {
	n := 0
	for _, packs := range s {
		n += len(packs)
	}
	return n
}

// Empty reports whether no pack is selected.
func (s Selection) Empty() bool {
	return s.Count() == 0
}

// Normalize returns a copy without blank or duplicate pack names and without
// empty categories. Pack names are sorted for stable output.
func (s Selection) Normalize() Selection {
	out := make(Selection, len(s))
	for category, packs := range s {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		for _, pack := range packs {
			out.Add(category, strings.TrimSpace(pack))
		}
	}
	for category := range out {
		sort.Strings(out[category])
	}
	return out
}

// Slugged returns the wire form of the selection: keys are category slugs.
// Categories that collapse to the same slug are merged.
func (s Selection) Slugged() map[string][]string {
	out := make(Selection, len(s))
	for category, packs := range s.Normalize() {
		slug := Slug(category)
		for _, pack := range packs {
			out.Add(slug, pack)
		}
	}
	for _, packs := range out {
		sort.Strings(packs)
	}
	return out
}
