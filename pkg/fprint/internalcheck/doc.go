// Package internalcheck holds source-level policy tests for the fprint
// packages.
//
// The tests load the module with golang.org/x/tools/go/packages and inspect
// syntax and types. They guard properties the compiler cannot: cgo stays
// confined to the backend package, raw native handles never appear in the
// public API, and usernames are never logged in the clear.
//
// # Internal Use Only
//
// This package contains no API. Use pkg/fprint instead.
package internalcheck
