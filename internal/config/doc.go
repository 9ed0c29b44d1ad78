// Package config provides configuration management for the inquiry worker.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development; the LLM
// fallback classifier stays off unless LLM_FALLBACK_ENABLED is set and an API
// key is present.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
