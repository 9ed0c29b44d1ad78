// Package domain defines the data exchanged between the classifier, the router and the
// conversation state store.
//
// A ConversationState is the explicit context object threaded through one message's
// processing: the classifier reads its history, the router returns an updated copy with
// the routing decision and the new conversation thread, and the store persists it.
//
// Example:
//
//	st := domain.NewConversationState("conv-42", time.Now())
//	st.AppendMessage(domain.Message{ID: "m1", Text: "My check engine light came on"}, 20)
package domain
