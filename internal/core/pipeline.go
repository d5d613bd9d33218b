package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/contact-intake/internal/metrics"
)

// PipelineOptions tunes the external calls made by the pipeline
type PipelineOptions struct {
	ClassifierTimeout   time.Duration
	PersonalizerTimeout time.Duration
	// FailOpen treats a classifier outage as not-spam instead of failing the request
	FailOpen bool
}

// SubmissionPipeline processes one contact form submission from rate check to response
type SubmissionPipeline struct {
	limiter      RateLimiter
	config       ConfigChecker
	validator    *Validator
	classifier   SpamClassifier
	personalizer ResponsePersonalizer
	dispatcher   Dispatcher
	sink         LogSink
	allowlist    SenderAllowlist
	opts         PipelineOptions
}

// NewSubmissionPipeline creates a new pipeline. allowlist may be nil.
func NewSubmissionPipeline(
	limiter RateLimiter,
	config ConfigChecker,
	validator *Validator,
	classifier SpamClassifier,
	personalizer ResponsePersonalizer,
	dispatcher Dispatcher,
	sink LogSink,
	allowlist SenderAllowlist,
	opts PipelineOptions,
) *SubmissionPipeline {
	return &SubmissionPipeline{
		limiter:      limiter,
		config:       config,
		validator:    validator,
		classifier:   classifier,
		personalizer: personalizer,
		dispatcher:   dispatcher,
		sink:         sink,
		allowlist:    allowlist,
		opts:         opts,
	}
}

// Process runs the submission through every stage and returns the response to send
func (p *SubmissionPipeline) Process(ctx context.Context, req *Request) *Response {
	ctx = WithRequestID(ctx, req.RequestID)
	resp, outcome := p.run(ctx, req)
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	return resp
}

func (p *SubmissionPipeline) run(ctx context.Context, req *Request) (*Response, string) {
	if !p.limiter.Allow(ctx, req.Origin) {
		p.record(ctx, LevelWarn, "Rate limit exceeded", map[string]any{
			"ip":        req.Origin,
			"userAgent": req.UserAgent,
		})
		return p.failure(ctx, newRateLimitError()), "rate_limited"
	}

	if missing := p.config.MissingRequired(); len(missing) > 0 {
		perr := newConfigurationError(missing)
		p.record(ctx, LevelError, perr.Message, map[string]any{})
		return p.failure(ctx, perr), "misconfigured"
	}

	sub, perr := p.parse(ctx, req)
	if perr != nil {
		return p.failure(ctx, perr), "invalid"
	}

	if err := p.validator.CheckAttachment(sub.Attachment); err != nil {
		return p.failure(ctx, newAttachmentError(err)), "invalid"
	}

	verdict, perr := p.classify(ctx, req, sub)
	if perr != nil {
		return p.failure(ctx, perr), "error"
	}

	if verdict.IsSpam {
		p.record(ctx, LevelInfo, "Spam submission detected and blocked.", map[string]any{
			"reason": verdict.Reason,
			"ip":     req.Origin,
		})
		return success(p.personalize(ctx, SpamPlaceholder)), "spam"
	}

	clean := SanitizeSubmission(sub)
	if _, err := p.dispatcher.Dispatch(ctx, clean, req.Origin); err != nil {
		var dispatchErr *PipelineError
		if !errors.As(err, &dispatchErr) {
			dispatchErr = newFatalError(KindOperatorNotificationFailed, err)
		}
		return p.failure(ctx, dispatchErr), "error"
	}

	return success(p.personalize(ctx, clean.Message)), "delivered"
}

func (p *SubmissionPipeline) parse(ctx context.Context, req *Request) (*Submission, *PipelineError) {
	if req.Form == nil {
		return nil, newValidationError(nil, ErrMalformedForm)
	}

	raw, err := req.Form.ReadForm(ctx)
	switch {
	case errors.Is(err, ErrFormTooLarge):
		return nil, newAttachmentError(err)
	case errors.Is(err, ErrMalformedForm):
		return nil, newValidationError(nil, err)
	case err != nil:
		// Transport failure while reading the body, not bad input
		return nil, newFatalError(KindFormUnreadable, err)
	}

	sub, fieldErrs := p.validator.Validate(raw)
	if len(fieldErrs) > 0 {
		return nil, newValidationError(fieldErrs, nil)
	}
	return sub, nil
}

// classify consults the allowlist and the classifier. A filled honeypot always
// yields spam, even when the classifier is unavailable.
func (p *SubmissionPipeline) classify(ctx context.Context, req *Request, sub *Submission) (*SpamVerdict, *PipelineError) {
	if !sub.HoneypotFilled && p.allowlist != nil && p.allowlist.IsWhitelisted(sub.Email) {
		return &SpamVerdict{IsSpam: false, Reason: "Sender domain is trusted", Source: "whitelist"}, nil
	}

	policy := PolicyFatal
	if sub.HoneypotFilled || p.opts.FailOpen {
		policy = PolicyFallback
	}

	var verdict *SpamVerdict
	err := attempt(ctx, StageClassify, p.opts.ClassifierTimeout, policy,
		func(ctx context.Context) error {
			v, err := p.classifier.Classify(ctx, ClassificationRequest{
				OriginIdentifier: req.Origin,
				Content:          sub.Message,
				HoneypotFilled:   sub.HoneypotFilled,
			})
			if err != nil {
				return err
			}
			if v == nil {
				return errors.New("classifier returned no verdict")
			}
			verdict = v
			return nil
		},
		func(err error) {
			p.record(ctx, LevelError, "Spam classification failed.", map[string]any{
				"ip":     req.Origin,
				"policy": policy.String(),
				"error":  err.Error(),
			})
		},
	)
	if err != nil {
		return nil, newFatalError(KindSpamClassificationUnavailable, err)
	}

	if verdict == nil {
		verdict = &SpamVerdict{IsSpam: false, Reason: "Classification unavailable", Source: "fallback"}
	}
	if sub.HoneypotFilled && !verdict.IsSpam {
		verdict = &SpamVerdict{IsSpam: true, Reason: "Honeypot field was filled.", Source: "honeypot"}
	}
	return verdict, nil
}

// personalize never fails; any problem yields FallbackAcknowledgment
func (p *SubmissionPipeline) personalize(ctx context.Context, message string) string {
	result := FallbackAcknowledgment
	_ = attempt(ctx, StagePersonalize, p.opts.PersonalizerTimeout, PolicyFallback,
		func(ctx context.Context) error {
			text, err := p.personalizer.Personalize(ctx, message)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return errors.New("personalizer returned an empty message")
			}
			result = text
			return nil
		},
		func(err error) {
			p.record(ctx, LevelWarn, "Response personalization failed, using fallback.", map[string]any{
				"error": err.Error(),
			})
		},
	)
	return result
}

func (p *SubmissionPipeline) failure(ctx context.Context, perr *PipelineError) *Response {
	if perr.Status < http.StatusInternalServerError {
		return &Response{
			Status: perr.Status,
			Body:   ResponseBody{Message: perr.Message, Errors: perr.Fields},
		}
	}

	data := map[string]any{"kind": string(perr.Kind)}
	if perr.Err != nil {
		data["errorMessage"] = perr.Err.Error()
	}
	p.record(ctx, LevelError, "Detailed error in contact form submission", data)

	message := perr.Message
	if message == "" {
		message = ClientMessage(perr)
	}
	return &Response{Status: perr.Status, Body: ResponseBody{Message: message}}
}

func success(personalized string) *Response {
	return &Response{
		Status: http.StatusOK,
		Body: ResponseBody{
			Message:             MessageSuccess,
			PersonalizedMessage: personalized,
		},
	}
}

func (p *SubmissionPipeline) record(ctx context.Context, level LogLevel, message string, data map[string]any) {
	if p.sink == nil {
		return
	}
	p.sink.Record(ctx, LogEntry{Level: level, Message: message, Data: withRequestID(ctx, data), Time: time.Now()})
}
