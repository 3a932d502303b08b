// Package transformer converts external payloads into persisted records
// and records back into payloads.
//
// A Definition declares how one record type maps to its payload. A Factory
// holds the registered definitions and builds Transformer instances:
//
//	f := transformer.NewFactory(store, transformer.WithLogger(logger))
//	f.Register(&transformer.Definition{
//		Name:      "UserTransformer",
//		ModelType: "users",
//		Declaration: mapping.Declaration{
//			ToModel: []mapping.Decl{mapping.Pair("user.name", "full_name")},
//		},
//	})
//
//	t, _ := f.Make("UserTransformer")
//	err := t.WithData(payload).Save(ctx)
//
// Saving a transformer persists its record and then, depth first and in
// declaration order, the records of every relation entry. Exporting with
// ToData reads related records eagerly and writes one payload per record.
//
// Transformers and collections are not safe for concurrent use.
package transformer
