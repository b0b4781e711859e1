// Package exporter renders comparison tables as downloadable CSV and
// XLSX files for the export endpoints and the offline export command.
package exporter
