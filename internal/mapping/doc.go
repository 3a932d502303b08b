// Package mapping provides declarative field maps, their normalization, and
// the YAML schema for transformer declarations.
//
// A transformer declares two ordered field maps:
//
//   - to_model: data path -> model field (used when importing)
//   - from_model: model field -> data path (used when exporting)
//
// Declaration order is significant: fields are converted, and field hooks
// run, in that order.
//
// # Shorthand
//
// An entry without a key (or with a numeric key) names the same field on
// both sides, so the declaration
//
//	to_model: [name, email]
//
// normalizes to {name: name, email: email}. When from_model is not declared
// it is the inverse of to_model.
//
// # Relations
//
// An entry whose key (to_model) or value (from_model) names a known
// transformer is a relation edge rather than a field:
//
//	to_model:
//	  - user.name: full_name
//	  - ItemTransformer: items    # relation accessor "items"
//
// # Schema Overview
//
//	version: "1"
//	transformers:
//	  - name: OrderTransformer
//	    model: orders
//	    remote_id: id
//	    date_format: Y-m-d
//	    to_model:
//	      - number
//	      - customer.name: customer_name
//	      - ItemTransformer: items
//	    to_model_default:
//	      status: pending
//	    casts:
//	      placed_at: date
package mapping
