package core

import (
	"context"
	"time"

	"github.com/mikey/contact-intake/internal/metrics"
)

// NotificationDispatcher sends the operator notification and the sender acknowledgment
type NotificationDispatcher struct {
	transport   MailTransport
	sink        LogSink
	settings    MailSettings
	sendTimeout time.Duration
	now         func() time.Time
}

// NewNotificationDispatcher creates a new dispatcher
func NewNotificationDispatcher(
	transport MailTransport,
	sink LogSink,
	settings MailSettings,
	sendTimeout time.Duration,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		transport:   transport,
		sink:        sink,
		settings:    settings,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Dispatch sends the operator mail and then the acknowledgment. An operator
// failure is returned as a *PipelineError and the acknowledgment is never
// attempted; an acknowledgment failure is only recorded in the report.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, sub *Submission, origin string) (DispatchReport, error) {
	report := DispatchReport{
		Operator: NotificationOutcome{Recipient: RecipientOperator},
		Sender:   NotificationOutcome{Recipient: RecipientSender},
	}
	now := d.now()

	report.Operator.Attempted = true
	err := attempt(ctx, StageNotifyOperator, d.sendTimeout, PolicyFatal,
		func(ctx context.Context) error {
			msg, err := BuildOperatorMessage(sub, d.settings, now)
			if err != nil {
				return err
			}
			return d.transport.Send(ctx, msg)
		},
		func(err error) {
			report.Operator.Err = err
			d.record(ctx, LevelError, "Failed to send submission email to administrator.", map[string]any{
				"ip":    origin,
				"error": err.Error(),
			})
		},
	)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(RecipientOperator), "failure").Inc()
		return report, newFatalError(KindOperatorNotificationFailed, report.Operator.Err)
	}
	report.Operator.Delivered = true
	metrics.NotificationsTotal.WithLabelValues(string(RecipientOperator), "success").Inc()
	d.record(ctx, LevelInfo, "Successfully sent submission email to administrator.", map[string]any{
		"ip": origin,
		"to": d.settings.OperatorEmail,
	})

	report.Sender.Attempted = true
	_ = attempt(ctx, StageNotifySender, d.sendTimeout, PolicyContinue,
		func(ctx context.Context) error {
			msg, err := BuildAcknowledgmentMessage(sub, d.settings, now)
			if err != nil {
				return err
			}
			return d.transport.Send(ctx, msg)
		},
		func(err error) {
			report.Sender.Err = err
			d.record(ctx, LevelWarn, "Failed to send auto-reply email to user.", map[string]any{
				"email": sub.Email,
				"error": err.Error(),
			})
		},
	)
	if report.Sender.Err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(RecipientSender), "failure").Inc()
		return report, nil
	}
	report.Sender.Delivered = true
	metrics.NotificationsTotal.WithLabelValues(string(RecipientSender), "success").Inc()
	d.record(ctx, LevelInfo, "Successfully sent auto-reply email to user.", map[string]any{
		"email": sub.Email,
	})
	return report, nil
}

func (d *NotificationDispatcher) record(ctx context.Context, level LogLevel, message string, data map[string]any) {
	if d.sink == nil {
		return
	}
	d.sink.Record(ctx, LogEntry{Level: level, Message: message, Data: withRequestID(ctx, data), Time: d.now()})
}
