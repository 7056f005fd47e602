// Package reporter renders installation progress and results on a terminal.
package reporter
