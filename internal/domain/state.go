package domain

import "time"

// Message is one inbound customer message
type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Sender     string    `json:"sender,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// ConversationThread tracks one routed inquiry. Threads are append-only here;
// closing them is left to downstream handlers.
type ConversationThread struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Urgency    Level     `json:"urgency"`
	StartTime  time.Time `json:"startTime"`
	AssignedTo string    `json:"assignedTo"`
}

// DTCLookupRecord remembers the last description lookup performed for detected codes
type DTCLookupRecord struct {
	Codes     []string          `json:"codes"`
	Timestamp time.Time         `json:"timestamp"`
	Result    map[string]string `json:"result,omitempty"`
}

// ConversationState is the per-conversation bag shared between the classifier,
// the router and downstream action handlers
type ConversationState struct {
	ConversationID string    `json:"conversationId"`
	History        []Message `json:"conversationHistory,omitempty"`

	LastRoutingEvaluation     *Evaluation          `json:"lastRoutingEvaluation,omitempty"`
	ConversationRouting       *RoutingResult       `json:"conversationRouting,omitempty"`
	ActiveConversationThreads []ConversationThread `json:"activeConversationThreads,omitempty"`
	LastRoutingTimestamp      *time.Time           `json:"lastRoutingTimestamp,omitempty"`

	LastDTCEvaluation *DTCEvaluation   `json:"lastDtcEvaluation,omitempty"`
	LastDTCLookup     *DTCLookupRecord `json:"lastDtcLookup,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversationState creates an empty state for a conversation
func NewConversationState(conversationID string, now time.Time) *ConversationState {
	return &ConversationState{
		ConversationID: conversationID,
		UpdatedAt:      now.UTC(),
	}
}

// HistoryTexts returns the text of every prior message, oldest first
func (s *ConversationState) HistoryTexts() []string {
	if s == nil {
		return nil
	}
	texts := make([]string, 0, len(s.History))
	for _, m := range s.History {
		texts = append(texts, m.Text)
	}
	return texts
}

// AppendMessage adds a message to the history, dropping the oldest entries
// beyond limit. A non-positive limit keeps everything.
func (s *ConversationState) AppendMessage(msg Message, limit int) {
	s.History = append(s.History, msg)
	if limit > 0 && len(s.History) > limit {
		s.History = append([]Message(nil), s.History[len(s.History)-limit:]...)
	}
}

// Clone returns a deep copy so callers can return an updated state without
// aliasing the original
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]Message(nil), s.History...)
	out.ActiveConversationThreads = append([]ConversationThread(nil), s.ActiveConversationThreads...)
	out.LastRoutingEvaluation = s.LastRoutingEvaluation.Clone()
	out.ConversationRouting = s.ConversationRouting.Clone()
	if s.LastRoutingTimestamp != nil {
		ts := *s.LastRoutingTimestamp
		out.LastRoutingTimestamp = &ts
	}
	if s.LastDTCEvaluation != nil {
		dtc := *s.LastDTCEvaluation
		dtc.Codes = append([]DTCInfo(nil), s.LastDTCEvaluation.Codes...)
		dtc.SuggestedActions = append([]string(nil), s.LastDTCEvaluation.SuggestedActions...)
		out.LastDTCEvaluation = &dtc
	}
	if s.LastDTCLookup != nil {
		lookup := *s.LastDTCLookup
		lookup.Codes = append([]string(nil), s.LastDTCLookup.Codes...)
		if s.LastDTCLookup.Result != nil {
			lookup.Result = make(map[string]string, len(s.LastDTCLookup.Result))
			for k, v := range s.LastDTCLookup.Result {
				lookup.Result[k] = v
			}
		}
		out.LastDTCLookup = &lookup
	}
	return &out
}
