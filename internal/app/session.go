package app

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"live-poll-service/internal/domain"
)

// Outbound event names. The transport delivers each as a named message with
// the payload JSON-encoded.
const (
	EventStateInit       = "state:init"
	EventStateUpdate     = "state:update"
	EventQuestionStarted = "question:started"
	EventQuestionEnded   = "question:ended"
	EventResultsUpdate   = "results:update"
	EventChatNewMessage  = "chat:newMessage"
	EventError           = "error:message"
	EventForceDisconnect = "force:disconnect"
)

const (
	chatCapacity           = 100
	historyCapacity        = 15
	defaultDurationSeconds = 60
)

// Broadcaster fans session events out to connected clients. Publish delivers
// to every connection, Send to one, Close force-closes one. Implementations
// must not block: sends to slow clients are best effort, and a failed send
// never surfaces back into the session.
type Broadcaster interface {
	Publish(event string, payload any)
	Send(connID, event string, payload any)
	Close(connID string)
}

// Presence mirrors who is currently connected into an external store, best
// effort and write-only. A nil Presence disables mirroring.
type Presence interface {
	MarkJoined(connID, name string)
	MarkLeft(connID string)
}

// QuestionBank loads preset question sets (from cache/backing store). A nil
// bank leaves only inline question starts available.
type QuestionBank interface {
	GetSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// Session is the authoritative state of the single live-polling session:
// the student roster, the current question and its countdown, recent history,
// and the shared chat. All mutation is funnelled through its methods under
// one mutex, so every command observes a fully consistent state and events
// are published in mutation order.
type Session struct {
	mu          sync.Mutex
	now         func() time.Time
	broadcaster Broadcaster
	presence    Presence
	bank        QuestionBank

	students   *registry
	chat       *boundedLog[domain.ChatMessage]
	history    *boundedLog[domain.Question]
	current    *domain.Question
	nextID     int64
	timer      *time.Timer
	lastChatID int64
}

func NewSession(b Broadcaster, presence Presence, bank QuestionBank) *Session {
	return NewSessionWithClock(b, presence, bank, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(b Broadcaster, presence Presence, bank QuestionBank, now func() time.Time) *Session {
	return &Session{
		now:         now,
		broadcaster: b,
		presence:    presence,
		bank:        bank,
		students:    newRegistry(),
		chat:        newBoundedLog[domain.ChatMessage](chatCapacity),
		history:     newBoundedLog[domain.Question](historyCapacity),
		nextID:      1,
	}
}

// Join registers or overwrites the student bound to a connection.
func (s *Session) Join(connID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.students.join(connID, name)
	if err != nil {
		s.broadcaster.Send(connID, EventError, err.Error())
		return err
	}
	if s.presence != nil {
		s.presence.MarkJoined(connID, student.Name)
	}
	s.broadcastLocked()
	return nil
}

// StartQuestion opens a new round. Option ids are assigned by position among
// the options whose text survives trimming.
func (s *Session) StartQuestion(connID, text string, options []domain.OptionInput, durationSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return s.rejectLocked(connID, domain.ErrEmptyQuestion)
	}

	valid := make([]domain.Option, 0, len(options))
	for _, opt := range options {
		optText := strings.TrimSpace(opt.Text)
		if optText == "" {
			continue
		}
		valid = append(valid, domain.Option{
			ID:        strconv.Itoa(len(valid)),
			Text:      optText,
			IsCorrect: opt.IsCorrect,
		})
	}
	if len(valid) < 2 {
		return s.rejectLocked(connID, domain.ErrTooFewOptions)
	}
	if s.current != nil && s.current.IsActive {
		return s.rejectLocked(connID, domain.ErrQuestionActive)
	}

	s.students.resetAnswers()

	duration := durationSeconds
	if duration <= 0 {
		duration = defaultDurationSeconds
	}

	now := s.now()
	question := &domain.Question{
		ID:        s.nextID,
		Text:      trimmed,
		Options:   valid,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.UnixMilli() + int64(duration*1000),
		IsActive:  true,
	}
	s.nextID++
	s.current = question

	if s.timer != nil {
		s.timer.Stop()
	}
	questionID := question.ID
	s.timer = time.AfterFunc(time.Duration(duration*float64(time.Second)), func() {
		s.expire(questionID)
	})

	s.broadcaster.Publish(EventQuestionStarted, s.currentCopyLocked())
	s.broadcastLocked()
	return nil
}

// StartFromBank starts a round from a stored question set. The set is loaded
// before the session lock is taken, so a slow backing store never stalls
// in-flight commands.
func (s *Session) StartFromBank(ctx context.Context, connID, setID string, index int, durationSeconds float64) error {
	if s.bank == nil {
		s.broadcaster.Send(connID, EventError, domain.ErrBankUnavailable.Error())
		return domain.ErrBankUnavailable
	}
	set, err := s.bank.GetSet(ctx, setID)
	if err != nil {
		s.broadcaster.Send(connID, EventError, domain.ErrSetNotFound.Error())
		return domain.ErrSetNotFound
	}
	if index < 0 || index >= len(set.Questions) {
		s.broadcaster.Send(connID, EventError, domain.ErrNoSuchBankQuestion.Error())
		return domain.ErrNoSuchBankQuestion
	}
	preset := set.Questions[index]
	return s.StartQuestion(connID, preset.Text, preset.Options, durationSeconds)
}

// SubmitAnswer records a vote for the active question. A student may answer
// each question at most once; once every connected student has answered, the
// round ends immediately.
func (s *Session) SubmitAnswer(connID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.students.get(connID)
	if !ok {
		return s.rejectLocked(connID, domain.ErrNotJoined)
	}
	if s.current == nil || !s.current.IsActive {
		return s.rejectLocked(connID, domain.ErrNoActiveQuestion)
	}
	if student.HasAnsweredCurrent {
		return s.rejectLocked(connID, domain.ErrAlreadyAnswered)
	}

	var option *domain.Option
	for i := range s.current.Options {
		if s.current.Options[i].ID == optionID {
			option = &s.current.Options[i]
			break
		}
	}
	if option == nil {
		return s.rejectLocked(connID, domain.ErrInvalidOption)
	}

	option.Votes++
	student.HasAnsweredCurrent = true
	correct := option.IsCorrect
	student.IsCorrectAnswer = &correct

	s.broadcaster.Publish(EventResultsUpdate, s.currentCopyLocked())
	s.broadcastLocked()

	if s.students.allAnswered() {
		log.Printf("all students answered question %d, ending round", s.current.ID)
		s.endLocked(domain.EndAllAnswered)
	}
	return nil
}

// EndQuestion ends the current round early. A no-op when nothing is active.
func (s *Session) EndQuestion(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(domain.EndManual)
}

// RemoveStudent forcibly disconnects a student. Unknown ids are a silent
// no-op apart from the state broadcast.
func (s *Session) RemoveStudent(connID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.broadcaster.Send(targetID, EventForceDisconnect, "Removed by teacher")
	s.broadcaster.Close(targetID)
	s.students.remove(targetID)
	if s.presence != nil {
		s.presence.MarkLeft(targetID)
	}
	s.broadcastLocked()
}

// SendChat appends a chat message. Blank messages are dropped silently.
func (s *Session) SendChat(connID, senderName, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	name := strings.TrimSpace(senderName)
	if name == "" {
		name = "User"
	}

	msg := domain.ChatMessage{
		ID:         s.nextChatIDLocked(),
		Sender:     connID,
		SenderName: name,
		Text:       trimmed,
		Timestamp:  s.now().UnixMilli(),
	}
	s.chat.append(msg)

	s.broadcaster.Publish(EventChatNewMessage, msg)
	s.broadcastLocked()
}

// Disconnect drops the student bound to a closed connection.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.students.remove(connID)
	if s.presence != nil {
		s.presence.MarkLeft(connID)
	}
	s.broadcastLocked()
}

// SendState pushes a full snapshot to a single connection; used on connect
// and for explicit state:request resyncs.
func (s *Session) SendState(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster.Send(connID, EventStateInit, s.snapshotLocked())
}

// Snapshot returns the current full state; primarily for tests and tooling.
func (s *Session) Snapshot() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// expire is the countdown callback. It re-checks under the lock that the
// question it was armed for is still the active one, so a fire racing a
// manual end or a new start is harmless.
func (s *Session) expire(questionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.IsActive || s.current.ID != questionID {
		return
	}
	log.Printf("question %d timer elapsed, ending round", questionID)
	s.endLocked(domain.EndTimeout)
}

func (s *Session) endLocked(reason domain.EndReason) {
	if s.current == nil || !s.current.IsActive {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.current.IsActive = false
	s.current.EndedAt = s.now().UnixMilli()
	s.current.EndedReason = reason

	ended := s.currentCopyLocked()
	s.history.append(*ended)

	s.broadcaster.Publish(EventQuestionEnded, ended)
	s.broadcastLocked()
}

// rejectLocked notifies the offending connection and surfaces the error to
// the caller. Rejected commands leave state untouched.
func (s *Session) rejectLocked(connID string, err error) error {
	s.broadcaster.Send(connID, EventError, err.Error())
	return err
}

func (s *Session) broadcastLocked() {
	s.broadcaster.Publish(EventStateUpdate, s.snapshotLocked())
}

func (s *Session) snapshotLocked() domain.State {
	return domain.State{
		Students:        s.students.snapshot(),
		CurrentQuestion: s.currentCopyLocked(),
		History:         s.history.snapshot(),
		ChatMessages:    s.chat.snapshot(),
	}
}

// currentCopyLocked deep-copies the current question so published payloads
// never alias live vote counters.
func (s *Session) currentCopyLocked() *domain.Question {
	if s.current == nil {
		return nil
	}
	q := *s.current
	q.Options = make([]domain.Option, len(s.current.Options))
	copy(q.Options, s.current.Options)
	return &q
}

// nextChatIDLocked derives a unique id from the wall clock, nudging forward
// when two messages land in the same millisecond.
func (s *Session) nextChatIDLocked() string {
	ms := s.now().UnixMilli()
	if ms <= s.lastChatID {
		ms = s.lastChatID + 1
	}
	s.lastChatID = ms
	return strconv.FormatInt(ms, 10)
}
