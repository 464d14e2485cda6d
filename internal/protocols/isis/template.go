package isis

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"grimm.is/confplane/internal/configtree"
)

//go:embed isis.tmpl
var isisTemplate string

var tmpl = template.Must(template.New("isis").Funcs(template.FuncMap{
	"sub": func(v any) configtree.Dict {
		d, _ := v.(configtree.Dict)
		return d
	},
	"child": func(d configtree.Dict, key, name string) configtree.Dict {
		return d.Child(key, name)
	},
	"levels": protoLevels,
	"dashed": func(s string) string {
		return strings.ReplaceAll(s, "_", "-")
	},
	"opt": func(v any, level, key string) string {
		d, ok := v.(configtree.Dict)
		if !ok {
			return ""
		}
		lv := d.Sub(level)
		if lv == nil {
			return ""
		}
		return lv.String(key)
	},
}).Parse(isisTemplate))

// renderTemplate produces the isisd configuration text for a validated dict.
func renderTemplate(d configtree.Dict) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("render isis configuration: %w", err)
	}
	return strings.TrimLeft(sb.String(), "\n"), nil
}
