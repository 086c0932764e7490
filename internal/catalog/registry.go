package catalog

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// DefaultProfile is the catalog used when none is configured.
const DefaultProfile = "platform-v2.3"

//go:embed profiles/*.yaml
var profileFiles embed.FS

// Profiles lists the embedded catalog profile names.
func Profiles() []string {
	entries, err := profileFiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadProfile parses an embedded profile by name.
func LoadProfile(name string) (*Catalog, error) {
	if name == "" {
		name = DefaultProfile
	}
	data, err := profileFiles.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	c, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}
	return c, nil
}

// Load resolves a catalog: an explicit file wins over a profile name.
func Load(profile, file string) (*Catalog, error) {
	if file != "" {
		c, err := ParseFile(file)
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: %w", file, err)
		}
		return c, nil
	}
	return LoadProfile(profile)
}
