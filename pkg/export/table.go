package export

// Table defines tabular export content. Rows are keyed by header name so
// renderers stay order-stable regardless of how rows were assembled.
type Table struct {
	Headers []string
	Rows    []map[string]string
}
