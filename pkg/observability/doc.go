/*
Package observability provides tools for monitoring the Espalier engine.

It offers lifecycle hook combinators for fanning events out to several
consumers, structured-logging hooks for auditing render passes, and a prune
recorder for capturing which parts of a tree survived a budget.
*/
package observability
