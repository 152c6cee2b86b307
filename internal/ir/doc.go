// Package ir provides the core types shared by every idsync package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the ledger and model
// types the foundational layer with no circular dependencies.
//
// Key constraints:
//   - Model ids are small scope-local sequence numbers, UIDs are large and
//     never reused once retired
//   - An IdUid serializes as the string "id:uid"
//   - All JSON tags use lowerCamelCase to stay compatible with existing
//     ledger files
//   - Model elements are addressed by positional Handle, never by name
package ir
