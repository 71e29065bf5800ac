package vanillatweaks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Quality of Life", want: "quality-of-life"},
		{in: "Adventure/Utility", want: "adventure-utility"},
		{in: "Survival", want: "survival"},
		{in: "  Mobs  ", want: "mobs"},
		{in: "quality-of-life", want: "quality-of-life"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slug(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Slug(got), "slug should be idempotent")
		})
	}
}

func TestSlug_NoCollisions(t *testing.T) {
	categories := []string{
		"Survival", "Items", "Mobs", "Teleportation", "Utilities",
		"Hermitcraft", "Experimental", "Quality of Life", "Adventure/Utility",
	}

	seen := make(map[string]string)
	for _, c := range categories {
		slug := Slug(c)
		other, dup := seen[slug]
		require.False(t, dup, "%q and %q collide on %q", c, other, slug)
		seen[slug] = c
	}
}

func TestSelection_AddRemove(t *testing.T) {
	sel := Selection{}

	sel.Add("Survival", "graves")
	sel.Add("Survival", "graves")
	sel.Add("Survival", "multiplayer_sleep")
	sel.Add("Mobs", "more_mob_heads")
	sel.Add("Mobs", "")

	assert.Equal(t, 3, sel.Count())
	assert.Equal(t, []string{"graves", "multiplayer_sleep"}, sel["Survival"])

	sel.Remove("Mobs", "more_mob_heads")
	_, ok := sel["Mobs"]
	assert.False(t, ok, "empty category must be deleted")

	sel.Remove("Survival", "graves")
	assert.Equal(t, []string{"multiplayer_sleep"}, sel["Survival"])

	sel.Remove("Unknown", "x")
	sel.Remove("Survival", "multiplayer_sleep")
	assert.True(t, sel.Empty())
	assert.Len(t, sel, 0)
}

func TestSelection_Normalize(t *testing.T) {
	sel := Selection{
		"Survival":  {"b", " a ", "b", ""},
		"Empty":     {},
		"Blank":     {"", "  "},
		"  ":        {"orphan"},
		"Utilities": {"armor_statues"},
	}

	got := sel.Normalize()

	assert.Equal(t, Selection{
		"Survival":  {"a", "b"},
		"Utilities": {"armor_statues"},
	}, got)
	assert.Equal(t, 3, got.Count())
}

func TestSelection_Slugged(t *testing.T) {
	sel := Selection{
		"Quality of Life":   {"armor_stand_flip"},
		"quality-of-life":   {"silence_mobs", "armor_stand_flip"},
		"Adventure/Utility": {"dungeon_loot"},
		"Nothing":           {},
	}

	assert.Equal(t, map[string][]string{
		"quality-of-life":   {"armor_stand_flip", "silence_mobs"},
		"adventure-utility": {"dungeon_loot"},
	}, sel.Slugged())
}

func TestParsePackType(t *testing.T) {
	tests := []struct {
		in         string
		want       PackType
		wantPrefix string
		wantErr    bool
	}{
		{in: "", want: Datapacks, wantPrefix: "dp"},
		{in: "datapacks", want: Datapacks, wantPrefix: "dp"},
		{in: "ResourcePacks", want: ResourcePacks, wantPrefix: "rp"},
		{in: "craftingtweaks", want: CraftingTweaks, wantPrefix: "ct"},
		{in: "shaders", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePackType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPackType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPrefix, got.Prefix())
			assert.Equal(t, got == CraftingTweaks, got.SingleArchive())
		})
	}
}
