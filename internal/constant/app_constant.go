package constant

const (
	// Watermill topic the chat service publishes finished turns to.
	TopicTurnCompleted = "TURN_COMPLETED"
	// Watermill topic the admin service publishes after a case write.
	TopicCaseChanged = "CASE_CHANGED"

	// Redis key prefix for the per-session turn lock.
	SessionLockPrefix = "voc:session_lock:"
)
