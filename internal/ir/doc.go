// Package ir provides the value and schema types shared by the query tree,
// the SQL compiler and the record store.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, String, Int, Float, Bool, Time, List
//   - List holds scalars only, so an IN clause always binds one flat sequence
//   - Times are UTC and rendered with TimeLayout
//   - Identifiers (entity and field names) match [A-Za-z_][A-Za-z0-9_]*
package ir
