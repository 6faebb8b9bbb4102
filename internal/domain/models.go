package domain

// Timestamps throughout are Unix milliseconds, matching what clients render.

// Student is a connected participant, keyed by connection identity.
type Student struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	HasAnsweredCurrent bool   `json:"hasAnsweredCurrent"`
	// IsCorrectAnswer is nil until the student answers the current question.
	IsCorrectAnswer *bool `json:"isCorrectAnswer,omitempty"`
}

// Option is one answer choice of a question. Votes only ever increases.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Votes     int    `json:"votes"`
}

// EndReason records why a question stopped accepting votes.
type EndReason string

const (
	EndCompleted   EndReason = "completed"
	EndTimeout     EndReason = "timeout"
	EndManual      EndReason = "manual"
	EndAllAnswered EndReason = "allAnswered"
)

// Question is one poll round. IDs are assigned sequentially for the process
// lifetime; at most one question is active at a time.
type Question struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	Options     []Option  `json:"options"`
	CreatedAt   int64     `json:"createdAt"`
	ExpiresAt   int64     `json:"expiresAt"`
	IsActive    bool      `json:"isActive"`
	EndedAt     int64     `json:"endedAt,omitempty"`
	EndedReason EndReason `json:"endedReason,omitempty"`
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID         string `json:"id"`
	Sender     string `json:"sender"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

// State is the full-session snapshot pushed after every mutation and on
// join/reconnect. Slices are copies; mutating them does not affect the session.
type State struct {
	Students        []Student     `json:"students"`
	CurrentQuestion *Question     `json:"currentQuestion"`
	History         []Question    `json:"history"`
	ChatMessages    []ChatMessage `json:"chatMessages"`
}

// OptionInput is what the presenter submits when starting a question.
type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// BankQuestion is a preset question stored in the question bank.
type BankQuestion struct {
	Text    string        `json:"text"`
	Options []OptionInput `json:"options"`
}

// QuestionSet is a named collection of preset questions the presenter can
// start rounds from without retyping them.
type QuestionSet struct {
	ID        string         `json:"id"`
	Questions []BankQuestion `json:"questions"`
}
