package jobs

// Job names.
const (
	JobOrphanCleanup = "files.orphan_cleanup"
)
