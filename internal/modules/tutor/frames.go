package tutor

// Branch tags carried in Frame.FromAgent.
const (
	AgentAnswering      = "answering_node"
	AgentQuizGeneration = "quiz_generation"
	AgentFallback       = "fallback_node"
	AgentMedia          = "media_generator"
	AgentSources        = "response_source"
	AgentQuiz           = "quiz_generator"
	AgentError          = "error"

	SenderAI       = "ai"
	FrameStream    = "stream"
	WelcomeMessage = "Welcome to the AI Tutor!"
)

// Frame is one server-to-client message. Text is a string for stream
// chunks and structured for media, sources and quizzes.
type Frame struct {
	Sender    string `json:"sender"`
	Text      any    `json:"text"`
	Type      string `json:"type,omitempty"`
	FromAgent string `json:"from_agent,omitempty"`
}

// Emitter delivers frames in order. An error stops the turn.
type Emitter func(Frame) error

func streamFrame(agent, chunk string) Frame {
	return Frame{Sender: SenderAI, Text: chunk, Type: FrameStream, FromAgent: agent}
}

func WelcomeFrame() Frame {
	return Frame{Sender: SenderAI, Text: WelcomeMessage}
}

func ErrorFrame(msg string) Frame {
	return Frame{Sender: SenderAI, Text: msg, FromAgent: AgentError}
}
