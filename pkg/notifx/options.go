package notifx

import "time"

// Options holds delivery configuration for a notification client.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Dead        DeadLetterSink
}

func defaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

// Option is a functional option for the notification client.
type Option func(*Options)

// WithMaxAttempts sets how many delivery attempts are made per notification.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithRetryDelay sets the base delay between delivery attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.RetryDelay = d
		}
	}
}

// WithDeadLetter sets the sink for exhausted notifications.
func WithDeadLetter(sink DeadLetterSink) Option {
	return func(o *Options) {
		o.Dead = sink
	}
}
