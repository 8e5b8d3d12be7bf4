// Package sanitizer normalizes free-form input before it is validated and
// stored.
//
// Every function is idempotent and never fails: unusable input comes back
// as an empty string or an empty slice, and validation reports it.
package sanitizer
