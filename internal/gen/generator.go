package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"sort"
	"strings"

	"transformer/internal/analyze"
	"transformer/internal/hooks"
	"transformer/internal/mapping"
	"transformer/internal/model"
	"transformer/internal/naming"
)

// ErrUnknownModel is returned when the root struct is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

// DefinitionSuffix is appended to struct names to name their transformers.
const DefinitionSuffix = "Transformer"

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package.
	PackageName string
	// ModulePath is the import path prefix of the engine packages.
	ModulePath string
	// ListFunc names the generated function returning every definition.
	ListFunc string
	// Hooks enables generation of To<Field>Attribute method stubs.
	Hooks bool
	// RemoteIDPath is the payload path of the external identifier, used
	// when the struct has a remote_id column.
	RemoteIDPath string
	// TimeCaster is the caster declared for time fields.
	TimeCaster string
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PackageName:  "transformers",
		ModulePath:   "transformer",
		ListFunc:     "Definitions",
		RemoteIDPath: "id",
		TimeCaster:   "datetime",
	}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "order_transformers.go").
	Filename string
	// Content is the Go source code.
	Content []byte
	// Unformatted is set when go/format rejected Content.
	Unformatted bool
}

// Result is the output of one generation run.
type Result struct {
	Files []GeneratedFile
	// Document declares the same transformers in YAML form.
	Document *mapping.Document
}

// Generator generates transformer definitions from analyzed structs.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()

	if config.PackageName == "" {
		config.PackageName = def.PackageName
	}

	if config.ModulePath == "" {
		config.ModulePath = def.ModulePath
	}

	if config.ListFunc == "" {
		config.ListFunc = def.ListFunc
	}

	if config.TimeCaster == "" {
		config.TimeCaster = def.TimeCaster
	}

	return &Generator{config: config}
}

// Generate builds definitions for the root struct and every struct reachable
// from it through relation fields. A struct reached through a relation reads
// its payload from the relation's column in the parent payload.
func (g *Generator) Generate(catalog *analyze.Catalog, root string) (*Result, error) {
	rootModel, ok := catalog.Lookup(root)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, root)
	}

	defs := g.collect(catalog, rootModel)

	data := fileData{
		Source:      rootModel.ID.String(),
		PackageName: g.config.PackageName,
		ModulePath:  g.config.ModulePath,
		ListFunc:    g.config.ListFunc,
		Definitions: defs,
	}

	for _, d := range defs {
		if len(d.Hooks) > 0 {
			data.NeedsContext = true
		}
	}

	file, err := render(naming.Snake(rootModel.ID.Name)+"_transformers.go", &data)
	if err != nil && !file.Unformatted {
		return nil, err
	}

	res := &Result{
		Files:    []GeneratedFile{file},
		Document: g.document(defs),
	}

	return res, err
}

// collect walks the relation graph breadth-first from root.
func (g *Generator) collect(catalog *analyze.Catalog, root *analyze.Model) []definitionData {
	type queued struct {
		model    *analyze.Model
		dataPath string
	}

	var defs []definitionData

	seen := map[analyze.ModelID]bool{root.ID: true}
	queue := []queued{{model: root}}

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]

		defs = append(defs, g.definition(q.model, q.dataPath))

		for _, f := range q.model.Relations() {
			id := analyze.ModelID{PkgPath: q.model.ID.PkgPath, Name: f.Target}

			target := catalog.Model(id)
			if target == nil || seen[id] {
				continue
			}

			seen[id] = true
			queue = append(queue, queued{model: target, dataPath: f.Column})
		}
	}

	return defs
}

func (g *Generator) definition(m *analyze.Model, dataPath string) definitionData {
	name := m.ID.Name + DefinitionSuffix

	d := definitionData{
		Func:      "New" + name,
		Name:      name,
		ModelType: plural(naming.Snake(m.ID.Name)),
		DataPath:  dataPath,
	}

	if g.config.Hooks {
		d.Methods = m.ID.Name + "Methods"
	}

	for _, f := range m.Fields {
		switch {
		case f.Column == model.IDField:
			continue

		case f.Column == mapping.DefaultIdentityField && g.config.RemoteIDPath != "":
			d.RemoteID = g.config.RemoteIDPath
			continue

		case f.Kind.IsRelation():
			d.ToModel = append(d.ToModel, declData{Key: f.Target + DefinitionSuffix, Value: f.Column})
			continue
		}

		d.ToModel = append(d.ToModel, declData{Value: f.Column, Positional: true})

		if f.Kind == analyze.FieldTime {
			d.Casts = append(d.Casts, castData{Field: f.Column, Caster: g.config.TimeCaster})
		}

		if g.config.Hooks {
			d.Hooks = append(d.Hooks, hookData{
				Name:   naming.HookName(hooks.ToModelPrefix, f.Column, hooks.AttributeSuffix),
				Column: f.Column,
			})
		}
	}

	sort.Slice(d.Casts, func(i, j int) bool { return d.Casts[i].Field < d.Casts[j].Field })

	return d
}

// document declares defs in YAML form.
func (g *Generator) document(defs []definitionData) *mapping.Document {
	doc := &mapping.Document{Version: "1"}

	for _, d := range defs {
		td := mapping.TransformerDef{
			Name:     d.Name,
			Model:    d.ModelType,
			RemoteID: d.RemoteID,
			DataPath: d.DataPath,
		}

		for _, e := range d.ToModel {
			if e.Positional {
				td.ToModel = append(td.ToModel, mapping.Field(e.Value))
			} else {
				td.ToModel = append(td.ToModel, mapping.Pair(e.Key, e.Value))
			}
		}

		if len(d.Casts) > 0 {
			td.Casts = make(map[string]string, len(d.Casts))
			for _, c := range d.Casts {
				td.Casts[c.Field] = c.Caster
			}
		}

		doc.Transformers = append(doc.Transformers, td)
	}

	return doc
}

// render executes the file template and formats the result. On format
// errors the unformatted source is returned with the error.
func render(filename string, data *fileData) (GeneratedFile, error) {
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return GeneratedFile{Filename: filename, Content: buf.Bytes(), Unformatted: true},
			fmt.Errorf("formatting code: %w", err)
	}

	return GeneratedFile{Filename: filename, Content: formatted}, nil
}

// plural makes a table-style model type: "order" -> "orders".
func plural(s string) string {
	switch {
	case s == "":
		return s
	case strings.HasSuffix(s, "y") && !strings.HasSuffix(s, "ey") && !strings.HasSuffix(s, "ay"):
		return strings.TrimSuffix(s, "y") + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"), strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}
