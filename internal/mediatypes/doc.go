// Package mediatypes classifies files by extension and defines the shared
// sort vocabulary for catalog listings.
package mediatypes
