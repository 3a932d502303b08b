// Package fieldpath resolves and writes dot-separated paths across
// heterogeneous containers.
//
// # Supported shapes
//
// At every path segment the current value is inspected at runtime:
//   - map[string]any, and any map keyed by a string kind
//   - Getter / Setter implementations (model records)
//   - []any, slices and arrays, addressed by integer segments ("items.0.sku")
//   - structs and struct pointers, by field name, PascalCase form, json tag or
//     folded name, falling back to a zero-argument method with the same name
//   - RawJSON documents, delegated to gjson (read) and sjson (write)
//
// # Misses
//
// Resolution never fails: a missing key, a nil container, an out of range
// index, an unknown field or a panicking accessor all resolve to nil.
// Missing and explicit null values are indistinguishable.
//
// Writing materializes missing intermediate containers as map[string]any
// (or the declared field type inside structs), and reports ErrNotSettable
// when a segment cannot hold a value.
package fieldpath
