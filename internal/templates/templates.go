// Package templates renders the pre-authored agent scaffolding.
//
// Templates live in files/ and are embedded into the binary, so the
// generator never depends on the working directory. Each template
// receives the flat parameter mapping built by the generator package.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

// Template names, one per generated artifact.
const (
	InitModule   = "init.py.tmpl"
	MainModule   = "main.py.tmpl"
	AgentModule  = "agent.py.tmpl"
	ConfigModule = "config.py.tmpl"
	NodesModule  = "nodes.py.tmpl"
	MCPServers   = "mcp_servers.json.tmpl"
)

//go:embed files/*.tmpl
var files embed.FS

// Renderer renders a named template with the given data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// EmbedRenderer renders the templates embedded in the binary.
type EmbedRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*EmbedRenderer, error) {
	tmpl, err := template.New("hive").
		Funcs(funcMap()).
		Option("missingkey=error").
		ParseFS(files, "files/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &EmbedRenderer{tmpl: tmpl}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Names lists the embedded template names.
func (r *EmbedRenderer) Names() []string {
	var names []string
	for _, t := range r.tmpl.Templates() {
		if strings.HasSuffix(t.Name(), ".tmpl") {
			names = append(names, t.Name())
		}
	}
	return names
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"quote":   quote,
		"json":    quote,
		"upper":   func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
		"pybool":  pyBool,
		"pylist":  pyList,
		"pyblock": pyBlock,
		"pydoc":   pyDoc,
		"ident":   ident,
	}
}

// quote encodes v as JSON. JSON strings and lists are valid Python
// literals, so one encoder serves both outputs.
func quote(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// pyBlock escapes s for the body of a """ string. Line breaks are kept;
// every quote is escaped so none can join the closing delimiter.
func pyBlock(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// pyDoc is pyBlock on a single line, for docstrings and comments.
func pyDoc(v any) string {
	return pyBlock(strings.Join(strings.Fields(fmt.Sprint(v)), " "))
}

func pyBool(v any) string {
	if b, ok := v.(bool); ok && b {
		return "True"
	}
	return "False"
}

func pyList(v any) (string, error) {
	items, ok := v.([]string)
	if !ok || len(items) == 0 {
		return "[]", nil
	}
	parts := make([]string, len(items))
	for i, it := range items {
		q, err := quote(it)
		if err != nil {
			return "", err
		}
		parts[i] = q
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// ident turns a free-form label into a snake_case identifier.
func ident(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
