// Package diagnostics backs "aiderkit doctor": it checks that aider can be
// run with the current configuration and reports host resources.
package diagnostics
