// Package metadata turns the three descriptive-metadata sources of a comic
// into one record.
//
// ParseEmbedded decodes the ComicInfo.xml document stored at an archive root.
// ParseFromFilename applies naming heuristics (issue numbers, parenthesized
// year, format, publisher and scan-group tags) and never fails. Merge combines
// candidates per field with a fixed trust order: embedded data over document
// properties over the filename. The publisher table normalizes raw publisher
// strings; a miss simply leaves the value as found.
package metadata
