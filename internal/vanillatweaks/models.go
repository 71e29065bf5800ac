package vanillatweaks

import "encoding/json"

// PackCatalog is the upstream description of the packs offered for one
// Minecraft version and pack type.
type PackCatalog struct {
	VersionName string     `json:"version,omitempty"`
	Categories  []Category `json:"categories"`
}

// Category groups packs under a display label.
type Category struct {
	Name  string `json:"category"`
	Packs []Pack `json:"packs"`
}

// UnmarshalJSON accepts both the "category" and "categoryName" label keys.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category     string `json:"category"`
		CategoryName string `json:"categoryName"`
		Packs        []Pack `json:"packs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = raw.Category
	if c.Name == "" {
		c.Name = raw.CategoryName
	}
	c.Packs = raw.Packs
	return nil
}

// Slug returns the category key used by the archive endpoint.
func (c Category) Slug() string {
	return Slug(c.Name)
}

// Pack is a single installable datapack, resourcepack or crafting tweak.
// Name is the stable identifier used for selection and image lookup.
type Pack struct {
	Name         string   `json:"name"`
	Display      string   `json:"display,omitempty"`
	Version      string   `json:"version,omitempty"`
	Description  string   `json:"description,omitempty"`
	Incompatible []string `json:"incompatible,omitempty"`
	Video        string   `json:"video,omitempty"`
}

// Title returns the display name, falling back to Name.
func (p Pack) Title() string {
	if p.Display != "" {
		return p.Display
	}
	return p.Name
}

// Find looks up a pack by name within a category matched by display name or
// slug.
func (c *PackCatalog) Find(category, pack string) (*Pack, bool) {
	slug := Slug(category)
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Name != category && cat.Slug() != slug {
			continue
		}
		for j := range cat.Packs {
			if cat.Packs[j].Name == pack {
				return &cat.Packs[j], true
			}
		}
	}
	return nil, false
}

// PackNames returns every pack name in catalog order.
func (c *PackCatalog) PackNames() []string {
	var names []string
	for _, cat := range c.Categories {
		for _, p := range cat.Packs {
			names = append(names, p.Name)
		}
	}
	return names
}

// ArchiveResponse is the reply of the archive generation endpoint.
type ArchiveResponse struct {
	Status  string `json:"status"`
	Link    string `json:"link"`
	Message string `json:"message,omitempty"`
}
