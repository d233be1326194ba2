// Package logs reads the ratingsync log file for the `logs` command.
//
// ReadLast returns the final lines of the file with bounded memory, and
// Follow polls from a byte offset until the context ends. Both accept a
// Filter that narrows output to one run or one item by matching the
// structured run_id and item_id fields.
package logs
