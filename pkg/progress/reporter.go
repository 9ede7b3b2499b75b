package progress

// Reporter receives extraction progress.
type Reporter interface {
	// Init starts a run with the expected total in bytes (0 if unknown).
	Init(total int64)

	// Add records n more bytes written.
	Add(n int64)

	// Complete marks the run finished.
	Complete()

	// Close releases the reporter.
	Close() error
}
