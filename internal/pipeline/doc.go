// Package pipeline runs an analysis as a sequence of steps.
//
// The default pipeline fetches a document, validates its tag balance and
// then looks for the deepest text. Each step receives the same
// model.Analysis and records what it learned in it. A step that returns an
// error stops the pipeline unless WithContinueOnError is set.
//
// BatchProcessor runs one pipeline per URL concurrently using errgroup,
// optionally throttled by a token bucket limiter.
package pipeline
