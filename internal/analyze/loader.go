package analyze

import (
	"errors"
	"fmt"
	"go/types"
	"reflect"
	"sort"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedTypes |
	packages.NeedTypesInfo

// ErrNoPackages is returned when the patterns matched nothing.
var ErrNoPackages = errors.New("no packages matched")

// Analyzer loads Go packages into a model catalog.
type Analyzer struct {
	// Dir is the directory the patterns are resolved from. Empty means the
	// current directory.
	Dir string

	catalog *Catalog
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{catalog: NewCatalog()}
}

// LoadPackages loads the packages matching patterns (e.g. "./examples/shop")
// and adds their exported structs to the catalog.
func (a *Analyzer) LoadPackages(patterns ...string) (*Catalog, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoPackages, patterns)
	}

	var errs []error

	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	return a.catalog, nil
}

// Catalog returns the models loaded so far.
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// processPackage adds the exported structs of pkg.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	a.catalog.Packages[pkg.PkgPath] = pkg.Name

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !typeName.Exported() || typeName.IsAlias() {
			continue
		}

		st, ok := typeName.Type().Underlying().(*types.Struct)
		if !ok {
			continue
		}

		id := ModelID{PkgPath: pkg.PkgPath, Name: name}
		a.catalog.Models[id] = &Model{ID: id, Fields: structFields(st, pkg.Types)}
	}
}

// structFields lists the exported, non-embedded fields of st in declaration order.
func structFields(st *types.Struct, pkg *types.Package) []Field {
	var out []Field

	for i := range st.NumFields() {
		v := st.Field(i)
		if !v.Exported() || v.Embedded() {
			continue
		}

		tag := reflect.StructTag(st.Tag(i))

		col, ok := columnName(v.Name(), tag)
		if !ok {
			continue
		}

		f := Field{
			Name:   v.Name(),
			Column: col,
			GoType: typeString(v.Type(), pkg),
			Tag:    tag,
		}
		f.Kind, f.Target = classify(v.Type(), pkg)

		out = append(out, f)
	}

	return out
}

// classify tells time fields and same-package struct references apart.
func classify(t types.Type, pkg *types.Package) (FieldKind, string) {
	if isTime(t) {
		return FieldTime, ""
	}

	switch u := t.(type) {
	case *types.Pointer:
		if name, ok := localStruct(u.Elem(), pkg); ok {
			return FieldOne, name
		}

		if isTime(u.Elem()) {
			return FieldTime, ""
		}

	case *types.Slice:
		elem := u.Elem()
		if p, ok := elem.(*types.Pointer); ok {
			elem = p.Elem()
		}

		if name, ok := localStruct(elem, pkg); ok {
			return FieldMany, name
		}

	case *types.Named:
		if name, ok := localStruct(u, pkg); ok {
			return FieldOne, name
		}
	}

	return FieldScalar, ""
}

// localStruct reports whether t is a named struct declared in pkg.
func localStruct(t types.Type, pkg *types.Package) (string, bool) {
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() != pkg {
		return "", false
	}

	if _, ok := named.Underlying().(*types.Struct); !ok {
		return "", false
	}

	return named.Obj().Name(), true
}

func isTime(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	return named.Obj().Pkg().Path() == "time" && named.Obj().Name() == "Time"
}

// SortedModels returns the catalog's models ordered by package path and name.
func (c *Catalog) SortedModels() []*Model {
	out := make([]*Model, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.PkgPath != out[j].ID.PkgPath {
			return out[i].ID.PkgPath < out[j].ID.PkgPath
		}

		return out[i].ID.Name < out[j].ID.Name
	})

	return out
}
