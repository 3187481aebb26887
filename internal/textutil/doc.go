// Package textutil provides small text helpers for building safe file names
// from comic titles and for pluralizing command output.
package textutil
