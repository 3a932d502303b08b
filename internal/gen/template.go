package gen

import "text/template"

// fileData holds all data needed for the definitions template.
type fileData struct {
	Source       string
	PackageName  string
	ModulePath   string
	ListFunc     string
	NeedsContext bool
	Definitions  []definitionData
}

// definitionData is one generated transformer definition.
type definitionData struct {
	Func      string
	Name      string
	ModelType string
	// Methods names the hook receiver type; it is emitted only with hooks.
	Methods  string
	Hooks    []hookData
	DataPath string
	RemoteID string
	ToModel  []declData
	Casts    []castData
}

type declData struct {
	Key        string
	Value      string
	Positional bool
}

type castData struct {
	Field  string
	Caster string
}

type hookData struct {
	Name   string
	Column string
}

var fileTemplate = template.Must(template.New("definitions").Parse(`// Code generated by transformer make from {{.Source}}; edit as needed.

package {{.PackageName}}

import (
{{if .NeedsContext}}	"context"

{{end}}	"{{.ModulePath}}/internal/mapping"
	"{{.ModulePath}}/internal/transformer"
)
{{range .Definitions}}{{$methods := .Methods}}
{{if .Hooks}}// {{.Methods}} holds the {{.ModelType}} hooks.
type {{.Methods}} struct{}
{{range .Hooks}}
// {{.Name}} adjusts {{.Column}} before it is written to the record.
func ({{$methods}}) {{.Name}}(_ context.Context, value any) (any, error) {
	return value, nil
}
{{end}}{{end}}
// {{.Func}} maps {{.ModelType}} payloads.
func {{.Func}}() *transformer.Definition {
	return &transformer.Definition{
		Name:      {{printf "%q" .Name}},
		ModelType: {{printf "%q" .ModelType}},
{{if .Hooks}}		Methods:   {{.Methods}}{},
{{end}}{{if .DataPath}}		Data:      transformer.DataAt({{printf "%q" .DataPath}}),
{{end}}		Declaration: mapping.Declaration{
			ToModel: []mapping.Decl{
{{range .ToModel}}{{if .Positional}}				mapping.Field({{printf "%q" .Value}}),
{{else}}				mapping.Pair({{printf "%q" .Key}}, {{printf "%q" .Value}}),
{{end}}{{end}}			},
{{if .Casts}}			Casts: map[string]string{
{{range .Casts}}				{{printf "%q" .Field}}: {{printf "%q" .Caster}},
{{end}}			},
{{end}}{{if .RemoteID}}			RemoteID: {{printf "%q" .RemoteID}},
{{end}}		},
	}
}
{{end}}
// {{.ListFunc}} returns the generated transformers.
func {{.ListFunc}}() []*transformer.Definition {
	return []*transformer.Definition{
{{range .Definitions}}		{{.Func}}(),
{{end}}	}
}
`))
