// Package analyze loads Go packages and describes their exported structs as
// record models: one column per exported field, with relation fields
// (slices of or pointers to structs of the same package) told apart.
//
// It uses golang.org/x/tools/go/packages with go/types. Key types:
//   - ModelID: package import path + struct name
//   - Model: the columns and relations of one struct
//   - Field: one exported field with its column name and kind
package analyze
