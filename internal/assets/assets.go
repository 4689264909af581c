package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_templates
var Templates embed.FS

//go:embed embedded_schemas
var Schemas embed.FS

// ModuleTemplatePath is the handlebars template of the module manifest header.
const ModuleTemplatePath = "module.js.hbs"

func GetTemplatesFS() fs.FS {
	if sub, err := fs.Sub(Templates, "embedded_templates"); err == nil {
		return sub
	}
	return Templates
}

func GetSchemasFS() fs.FS {
	if sub, err := fs.Sub(Schemas, "embedded_schemas"); err == nil {
		return sub
	}
	return Schemas
}

// GetTemplate returns an embedded template by path relative to embedded_templates.
func GetTemplate(path string) ([]byte, error) {
	return fs.ReadFile(GetTemplatesFS(), path)
}
