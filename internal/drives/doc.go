// Package drives detects removable drive insertion and removal by
// polling the mounted volume list and diffing against the previous
// snapshot. Mount tables do not emit change notifications on every
// platform, so polling is used rather than fsnotify.
package drives
