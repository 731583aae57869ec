package constant

// Session lifecycle. Expiry is terminal and realized by the sweeper removing
// the record outright, so it never appears as a stored status.
const (
	SessionStatusActive   = "active"
	SessionStatusComplete = "complete"
)

// TopicState lifecycle
const (
	TopicStatusPending    = "pending"
	TopicStatusInProgress = "in_progress"
	TopicStatusComplete   = "complete"
)

// Message roles
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Fact provenance for uploaded documents. Conversational facts carry "turn:N".
const ProvenanceDocument = "uploaded-document"

// Event topics on the in-process bus
const (
	EventTopicCompleted   = "TOPIC_COMPLETED"
	EventSessionCompleted = "SESSION_COMPLETED"
)

const GreetingMessage = "Hello! I'm your Knowledge Transfer Assistant. Let's start the KT session. Can you give me a high-level overview of the system we're documenting today?"
