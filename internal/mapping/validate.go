package mapping

import (
	"fmt"
	"strings"
	"unicode"

	"transformer/internal/cast"
	"transformer/internal/diagnostic"
	"transformer/internal/naming"
)

// Diagnostic codes reported by Validate.
const (
	CodeDocumentNil        = "document_is_nil"
	CodeDuplicateName      = "duplicate_transformer"
	CodeDuplicateKey       = "duplicate_key"
	CodeUnknownTransformer = "unknown_transformer"
	CodeUnknownCaster      = "unknown_caster"
	CodeCastUnmapped       = "cast_unmapped_field"
	CodeUnusedDataPath     = "unused_data_path"
)

// Validate checks a document for structural mistakes the YAML schema cannot
// express. casters lists the caster names available to the engine.
func Validate(doc *Document, casters []string) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if doc == nil {
		res.AddError(CodeDocumentNil, "declaration document is nil", "", "")
		return res
	}

	names := doc.Names()
	defined := make(map[string]bool, len(names))
	referenced := make(map[string]bool)

	for _, name := range names {
		if defined[name] {
			res.AddError(CodeDuplicateName, fmt.Sprintf("duplicate transformer %q", name), name, "")
			continue
		}

		defined[name] = true
	}

	knownCasters := make(map[string]bool, len(casters))
	for _, c := range casters {
		knownCasters[c] = true
	}

	for i := range doc.Transformers {
		def := &doc.Transformers[i]

		checkDuplicateKeys(res, def.Name, "to_model", def.ToModel)
		checkDuplicateKeys(res, def.Name, "from_model", def.FromModel)

		for _, d := range def.ToModel {
			checkRelationRef(res, def.Name, keyOf(d), defined, names, referenced)
		}

		for _, d := range def.FromModel {
			checkRelationRef(res, def.Name, d.Value, defined, names, referenced)
		}

		mapped := mappedModelFields(def)

		for field, id := range def.Casts {
			name, _ := cast.ParseID(id)
			if !knownCasters[name] {
				dg := res.AddError(CodeUnknownCaster, fmt.Sprintf("unknown caster %q", name), def.Name, field)
				if s, ok := naming.Suggest(name, casters); ok {
					dg.Suggestion = s
				}
			}

			if !mapped[field] {
				res.AddWarning(CodeCastUnmapped, "cast declared for a field that is not mapped", def.Name, field)
			}
		}
	}

	for i := range doc.Transformers {
		def := &doc.Transformers[i]
		if def.DataPath != "" && !referenced[def.Name] {
			res.AddWarning(CodeUnusedDataPath, "data_path is only used for transformers reached through a relation", def.Name, def.DataPath)
		}
	}

	return res
}

func keyOf(d Decl) string {
	if d.IsPositional() {
		return d.Value
	}

	return d.Key
}

func checkDuplicateKeys(res *diagnostic.Diagnostics, transformer, section string, decls DeclList) {
	seen := make(map[string]bool, len(decls))

	for _, d := range decls {
		k := keyOf(d)
		if seen[k] {
			res.AddWarning(CodeDuplicateKey, fmt.Sprintf("duplicate %s key, the last value wins", section), transformer, k)
		}

		seen[k] = true
	}
}

// checkRelationRef flags names that look like transformer references but
// are not declared. Declared references are recorded in referenced.
func checkRelationRef(res *diagnostic.Diagnostics, transformer, name string, defined map[string]bool, names []string, referenced map[string]bool) {
	if defined[name] {
		referenced[name] = true
		return
	}

	if !looksLikeTransformer(name) {
		return
	}

	dg := res.AddError(CodeUnknownTransformer, fmt.Sprintf("relation to undeclared transformer %q", name), transformer, name)
	if s, ok := naming.Suggest(name, names); ok {
		dg.Suggestion = s
	}
}

// looksLikeTransformer matches PascalCase names without path separators
// ending in "Transformer".
func looksLikeTransformer(name string) bool {
	if name == "" || strings.Contains(name, ".") {
		return false
	}

	return unicode.IsUpper([]rune(name)[0]) && strings.HasSuffix(name, "Transformer")
}

func mappedModelFields(def *TransformerDef) map[string]bool {
	spec := Compile(def.Declaration(), nil)
	mapped := make(map[string]bool)

	for _, e := range spec.ToModel.Entries() {
		mapped[e.Value] = true
	}

	for _, e := range spec.FromModel.Entries() {
		mapped[e.Key] = true
	}

	return mapped
}
