// Package worker implements the inquiry worker lifecycle and Redis Streams integration.
//
// The worker reads customer messages from a Redis stream consumer group one at a
// time, runs them through the inquiry pipeline and publishes a decision event to
// a Redis stream or a Kafka topic. Messages that fail are reported on the
// "<RESULT_STREAM>.errors" stream and acknowledged.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	publisher := worker.NewStreamPublisher(redisClient, cfg.ResultStream, logger)
//
//	w := worker.NewWorker(cfg, redisClient, service, publisher, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
