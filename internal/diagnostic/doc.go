// Package diagnostic provides structured findings reported while checking
// transformer declarations.
//
// Errors make a declaration unusable (duplicate names, unknown casters,
// relations to transformers that do not exist); warnings flag likely
// mistakes that still load (duplicate keys, casts for unmapped fields).
package diagnostic
