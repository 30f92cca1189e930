package supervisor

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"mcphub/internal/config"

	"github.com/Masterminds/sprig/v3"
)

// templateData is what bridge argument and env templates are rendered with.
type templateData struct {
	Name string
	URL  string
}

type envTemplate struct {
	key  string
	tmpl *template.Template
}

// bridgeTemplate is a parsed BridgeConfig.
type bridgeTemplate struct {
	command string
	args    []*template.Template
	env     []envTemplate
}

func newTemplate(name, text string) (*template.Template, error) {
	return template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
}

func parseBridge(cfg config.BridgeConfig) (*bridgeTemplate, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("bridge command is required")
	}

	b := &bridgeTemplate{command: cfg.Command}
	for i, arg := range cfg.Args {
		tmpl, err := newTemplate(fmt.Sprintf("arg%d", i), arg)
		if err != nil {
			return nil, fmt.Errorf("invalid bridge arg %d %q: %w", i, arg, err)
		}
		b.args = append(b.args, tmpl)
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tmpl, err := newTemplate(k, cfg.Env[k])
		if err != nil {
			return nil, fmt.Errorf("invalid bridge env %s: %w", k, err)
		}
		b.env = append(b.env, envTemplate{key: k, tmpl: tmpl})
	}

	return b, nil
}

// render produces the process spec for a single backend.
func (b *bridgeTemplate) render(def config.BackendDefinition) (ProcessSpec, error) {
	data := templateData{Name: def.Name, URL: def.URL}
	spec := ProcessSpec{Backend: def.Name, Command: b.command}

	var buf bytes.Buffer
	for _, tmpl := range b.args {
		buf.Reset()
		if err := tmpl.Execute(&buf, data); err != nil {
			return ProcessSpec{}, fmt.Errorf("rendering bridge args: %w", err)
		}
		spec.Args = append(spec.Args, buf.String())
	}
	for _, e := range b.env {
		buf.Reset()
		if err := e.tmpl.Execute(&buf, data); err != nil {
			return ProcessSpec{}, fmt.Errorf("rendering bridge env %s: %w", e.key, err)
		}
		spec.Env = append(spec.Env, e.key+"="+buf.String())
	}

	return spec, nil
}
