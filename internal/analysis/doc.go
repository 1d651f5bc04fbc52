// Package analysis derives chart-ready series from the flat race-result table.
//
// Every operation takes a *Table and returns fresh values; none of them mutate
// their input or touch the filesystem. Callers reload and re-derive for each
// chart rather than sharing intermediate state. Persisting a derived table is
// an explicit step via (*Table).WriteCSV or the report package's XLSX export.
//
// Input errors surface as *SchemaError, *MissingDataError or
// *DegenerateColumnError, which unwrap to ErrSchema, ErrMissingData and
// ErrDegenerateInput respectively. None of them are transient.
package analysis
