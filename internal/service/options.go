package service

import (
	"residencehub/internal/booking"
	"residencehub/internal/events"
)

type options struct {
	publisher            events.Publisher
	notifier             Notifier
	gateway              PaymentGateway
	paymentDeadlineHours int
	sweepBatchSize       int
}

// Option configures the services built by this package.
type Option func(*options)

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithPaymentGateway enables online checkout and refunds.
func WithPaymentGateway(g PaymentGateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithDefaultPaymentDeadline sets the deadline used for buildings without their own policy.
func WithDefaultPaymentDeadline(hours int) Option {
	return func(o *options) { o.paymentDeadlineHours = hours }
}

func WithSweepBatchSize(n int) Option {
	return func(o *options) { o.sweepBatchSize = n }
}

func buildOptions(opts []Option) options {
	o := options{
		paymentDeadlineHours: booking.DefaultPaymentDeadlineHours,
		sweepBatchSize:       500,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (l *lifecycle) apply(o options) {
	if o.publisher != nil {
		l.publisher = o.publisher
	}
	if o.notifier != nil {
		l.notifier = o.notifier
	}
}
