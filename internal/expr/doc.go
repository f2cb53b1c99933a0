/*
Package expr holds the expression tree and its renderer. Nodes are
immutable value objects: comparisons, AND/OR junctions, aggregate calls
and verbatim bypass fragments. By the time a node is constructed every
identifier inside it is already quoted and every value position is an
opaque placeholder token, so rendering is a pure tree walk with no access
to the binder or the dialect.
*/
package expr
