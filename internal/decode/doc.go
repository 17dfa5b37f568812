// Package decode turns source media files into thumbnail images. A
// Dispatcher routes each file to a format-specific decode path (stdlib
// and imaging for common raster formats, libvips for RAW and exotic
// formats, ffmpeg for video) and falls back to a rendered placeholder
// when no decoder can handle the file.
package decode
