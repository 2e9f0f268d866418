// Package scanner finds the CSV files of each mapped folder and plans what
// a run will do with them.
//
// Folders are scanned non-recursively. Files are visited in name order, so a
// plan is deterministic: the same tree always yields the same table names,
// the same load order and the same collision markers. The planner never
// touches the database; csvload plan prints it and csvload load executes it.
package scanner
