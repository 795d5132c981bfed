package runtime

var (
	// injected at build time via ldflags
	Version   = "dev"
	GitCommit = "unknown"
	Timestamp = "unknown"
)
