// Package progress tracks reading positions and derives reading status.
package progress
