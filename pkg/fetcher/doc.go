// Package fetcher wires the run together: it loads the per-user checkpoint,
// streams posts from the timeline source through the filter pipeline, hands
// eligible media to the download pool, and persists the advanced watermark
// when the run ends, including after partial failures.
package fetcher
