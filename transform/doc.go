// Package transform implements the byte rules of the split pipeline.
//
// Rules, applied left to right, one input byte at a time:
//
//	'1'..'9'  a digit run: d output slots filled with the placeholder
//	'A'..'Z'  folded to lowercase
//	'0'       dropped (ZeroDrop) or copied through (ZeroKeep)
//	other     copied through
//
// Output length depends on the data, so callers size buffers with
// Rules.NewLength before writing anything.
//
// Two writers produce the same final bytes. ExpandAndFold fills runs
// eagerly. MarkAndFold leaves the digit as a marker at the head of its run
// and reserves the rest, and ExpandInPlace later fills the run from the marker.
package transform
