// Package recorder turns engine results into evidence records and writes
// them asynchronously.
//
// Record never blocks the caller. Records that do not fit in the buffer are
// dropped and reported through Config.OnDrop. Close drains the buffer
// before returning, so every record accepted before shutdown reaches
// storage.
package recorder
