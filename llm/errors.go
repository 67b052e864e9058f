package llm

import "fmt"

// RateLimitError is returned when the provider kept answering with a
// rate-limit signal after all retries were exhausted.
type RateLimitError struct {
	Attempts int
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded after %d attempts: %v (check your plan and billing quota)", e.Attempts, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// QuotaError is returned immediately, without retrying, when the provider
// reports that the account quota is exhausted.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("provider quota exhausted: %v (top up your balance or check billing)", e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// GatewayError wraps any other provider failure.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
