package queue

// Topic names follow fv.<domain>.<action>. They are stable; consumers match
// on them exactly.
const (
	TopicFileStored        = "fv.file.stored"         // blob written and record inserted
	TopicFileDeleted       = "fv.file.deleted"        // blob and record removed by the owner
	TopicFileOrphanRemoved = "fv.file.orphan_removed" // removed by the orphan cleanup job
)

// FileTopics lists every file topic.
var FileTopics = []string{
	TopicFileStored,
	TopicFileDeleted,
	TopicFileOrphanRemoved,
}
