// Package pipeline provides a framework for executing scan steps in sequence.
//
// The pipeline pattern is used to process documents through multiple
// stages: loading content from disk, scanning (detection, analysis, risk
// assessment, and conditional sanitization), and persisting results. Each
// stage is implemented as a Step that receives the current item and can
// modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running batches
//
// A single document is processed synchronously; parallelism lives one
// level up in the BatchProcessor, which fans documents out across
// pipelines with errgroup-based concurrency control.
package pipeline
