// Package inquiry runs the per-message pipeline: load the conversation state,
// classify the message against its history, optionally ask an LLM when no
// keyword matched, scan for diagnostic trouble codes, route, record the message
// and save the state.
//
// Example usage:
//
//	svc, err := inquiry.NewService(store, cls, rtr, logger,
//	    inquiry.WithDTCDetector(dtc.NewDetector(lookup, logger)),
//	    inquiry.WithHistoryLimit(20),
//	)
//
//	out, err := svc.Handle(ctx, inquiry.Inbound{
//	    ConversationID: "conv-42",
//	    MessageID:      "m-1",
//	    Text:           "My check engine light came on",
//	})
//	fmt.Println(out.Response)
package inquiry
