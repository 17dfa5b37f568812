// Package browse schedules thumbnail loading for a scrolling grid of
// media files. It debounces scroll activity, loads visible tiles from
// the center of the viewport outward in small staggered batches,
// pre-warms tiles just beyond the viewport in the scroll direction, and
// falls back to direct generation for tiles the queue has not served
// within a deadline.
package browse
