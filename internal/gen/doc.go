// Package gen generates transformer definition skeletons for model structs.
//
// Starting from one struct, it follows relation fields to the structs they
// reach and emits, for each, a definition with shorthand to_model entries,
// date casts for time fields and optional hook method stubs named after
// the To<Field>Attribute convention. The same definitions are returned as
// a YAML declaration document.
//
// Generation uses text/template + go/format.
package gen
