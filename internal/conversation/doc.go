// Package conversation stores per-conversation state and reports on the
// inquiry threads recorded in it.
//
// Two Store implementations are provided: RedisStore keeps one JSON document per
// conversation under a key prefix with an optional TTL, MemoryStore keeps JSON
// snapshots in process memory.
//
// Example usage:
//
//	store := conversation.NewRedisStore(redisClient, logger,
//	    conversation.WithKeyPrefix("inquiry:state:"),
//	    conversation.WithTTL(24*time.Hour),
//	)
//
//	st, err := conversation.LoadOrNew(ctx, store, "conv-42", func() *domain.ConversationState {
//	    return domain.NewConversationState("conv-42", time.Now())
//	})
//
//	fmt.Println(conversation.ThreadReport("summary", st.ActiveConversationThreads, time.Now()))
package conversation
