// Package lint is the boundary to the external lint engine.
//
// The Engine interface is the contract the build plugin depends on:
//
//	IsPathIgnored(ctx, path)        engine-level ignore rules
//	LintText(ctx, code, opts)       lint in-memory source for a file path
//	LoadFormatter(ctx, name)        resolve a result renderer
//	OutputFixes(ctx, results)       write fixed sources back to disk
//
// ESLint implements Engine by running the eslint binary with JSON output,
// feeding the source over stdin. Results mirror ESLint's JSON result schema,
// so they decode without an intermediate representation.
//
// # Formatters
//
// Built-in formatters are stylish (default), compact, unix and json.
// FormatterFunc adapts a plain function for callers that bring their own.
//
// # Thread Safety
//
// ESLint and the formatter registry are safe for concurrent use. Fixes for
// the same file must not be written concurrently.
package lint
