// Package thumbs implements the asynchronous thumbnail engine: a
// two-tier cache (in-memory LRU plus an on-disk JPEG store) fed by a
// small worker pool that generates thumbnails in the background.
//
// Callers request thumbnails with GetAsync and receive results through
// callbacks. Concurrent requests for the same key coalesce into a
// single generation. A viewport hint reorders pending work so visible
// items are generated first.
package thumbs
