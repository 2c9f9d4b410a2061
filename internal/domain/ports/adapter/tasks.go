package adapter

import "context"

// TaskSubmitter runs work in the background without blocking the caller.
type TaskSubmitter interface {
	Submit(task func(ctx context.Context) error) error
}
