// Package container reads page images out of comic files.
//
// Open picks a Reader by container kind. Zip archives (cbz/zip) expose their
// image entries in natural order and carry an optional ComicInfo.xml.
// Paginated documents (pdf) are rendered page by page through a Renderer
// backend; only a small initial batch is rendered when the reader opens.
package container
