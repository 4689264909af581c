package assets

// Registry lists embedded assets available at runtime.
// Update this when adding/removing curated assets.

type AssetInfo struct {
	Family  string // schema, template
	Name    string // lookup name
	Version string
	Path    string // path inside its embedded FS
}

var Registry = []AssetInfo{
	{
		Family:  "schema",
		Name:    "manifest-v1.0.0",
		Version: "1.0.0",
		Path:    "manifest/manifest-v1.0.0.yaml",
	},
	{
		Family:  "schema",
		Name:    "assetgen-config-v1.0.0",
		Version: "1.0.0",
		Path:    "config/assetgen-config-v1.0.0.yaml",
	},
	{
		Family: "template",
		Name:   "module",
		Path:   ModuleTemplatePath,
	},
}

// Lookup finds a registry entry by family and name.
func Lookup(family, name string) (AssetInfo, bool) {
	for _, a := range Registry {
		if a.Family == family && a.Name == name {
			return a, true
		}
	}
	return AssetInfo{}, false
}
