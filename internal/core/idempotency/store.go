// Package idempotency defines the contract for replaying mutating HTTP requests
// that carry an X-Idempotency-Key.
package idempotency

import "context"

// Status is the state of a keyed operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Replay is a stored response returned for a repeated key.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store records keyed operations and their responses.
//
// AcquireKey returns (nil, nil) when the caller owns the key and should run the
// operation, a Replay when the operation already finished, and an AppError when
// the key is in flight or was used for a different request.
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// NormalizeStatus defaults a missing status to 200.
func NormalizeStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

// NormalizeContentType defaults a missing content type to JSON.
func NormalizeContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
