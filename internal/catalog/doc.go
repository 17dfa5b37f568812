// Package catalog scans a source directory (typically a mounted memory
// card) and builds an ordered list of media files for import and browsing.
package catalog
