// Package query validates evidence queries and fills their defaults before
// they reach a storage backend.
package query
