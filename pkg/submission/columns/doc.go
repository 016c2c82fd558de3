// Package columns builds the ordered output columns of an export run and
// computes their cell values.
//
// A Column reads its raw value through an Accessor, which is either a static
// field of the submission or a JSON path into the row's parsed answers, then
// runs the value through its transformer chain and formatter. Columns are
// discovered once from the first row of a run and reused unchanged for every
// later row.
package columns
