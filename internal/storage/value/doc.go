// Package value implements the polymorphic values stored in a database.
//
// Each data type (string, hash, set, sorted set, list) is a tagged union over
// a compact encoding and a general one. Compact encodings are a listpack (a
// contiguous packed byte buffer), an intset (a sorted array of integers), or
// a small inline string; general encodings are hash tables, a quicklist, and
// a skiplist. Write operations take the configured thresholds and promote the
// encoding in place before the mutation commits. Promotions are one-way for
// the lifetime of a value, except that LTRIM can collapse a shrunken
// quicklist back into a single listpack.
package value
