package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/config"
	"github.com/bcn-golf/backend/internal/maillog"
	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/queue"
)

// MailLog is the persistence the mailer needs. Implemented by
// *maillog.Repository.
type MailLog interface {
	RecipientFor(ctx context.Context, requestID uuid.UUID) (*maillog.Recipient, error)
	Insert(ctx context.Context, log *models.EmailLog) error
}

// JobQueue is the queue surface the mailer consumes. Implemented by
// *queue.Queue.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// DecisionMailer processes decision email jobs: resolve the applicant,
// compose the message, record it in the email log.
type DecisionMailer struct {
	mailRepo MailLog
	queue    JobQueue
	from     config.EmailConfig
	logger   *zap.Logger
}

// NewDecisionMailer creates a decision email processor.
func NewDecisionMailer(mailRepo MailLog, q JobQueue, from config.EmailConfig, logger *zap.Logger) *DecisionMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionMailer{mailRepo: mailRepo, queue: q, from: from, logger: logger}
}

// Process executes one decision email job.
func (p *DecisionMailer) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeDecisionEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.DecisionEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	rec, err := p.mailRepo.RecipientFor(ctx, payload.RequestID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	subject, body := composeDecision(rec, payload.Outcome, payload.Comment, p.from)

	log := &models.EmailLog{
		RequestID:      payload.RequestID,
		RecipientEmail: rec.Email,
		Subject:        subject,
		Body:           body,
		Status:         "sent",
	}
	if err := p.mailRepo.Insert(ctx, log); err != nil {
		p.logger.Error("email log insert failed", zap.Error(err), zap.String("request_id", payload.RequestID.String()))
		return fmt.Errorf("insert email log: %w", err)
	}

	p.logger.Info("decision email recorded",
		zap.String("request_id", payload.RequestID.String()),
		zap.String("recipient", rec.Email),
		zap.String("outcome", string(payload.Outcome)))
	return nil
}

func composeDecision(rec *maillog.Recipient, outcome models.Outcome, comment string, from config.EmailConfig) (subject, body string) {
	what := "membership application"
	if rec.Kind == models.KindTournamentEntry {
		what = "tournament entry"
	}
	verdict := "approved"
	if outcome == models.OutcomeRejected {
		verdict = "rejected"
	}
	subject = fmt.Sprintf("Your %s has been %s", what, verdict)
	body = fmt.Sprintf("Hi %s,\n\nYour %s has been %s.", rec.FirstName, what, verdict)
	if comment != "" {
		body += fmt.Sprintf("\n\nComment from the reviewer: %s", comment)
	}
	body += fmt.Sprintf("\n\nBest regards,\n%s\n%s", from.FromName, from.FromAddress)
	return subject, body
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *DecisionMailer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("decision mailer stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			if !p.backoff(ctx) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if !p.backoff(ctx) {
				return
			}
			continue
		}
	}
}

// backoff waits out the retry delay, returning false if the context is
// canceled first so shutdown is never held up by the backoff.
func (p *DecisionMailer) backoff(ctx context.Context) bool {
	t := time.NewTimer(queue.RetryBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		p.logger.Info("decision mailer stopping")
		return false
	case <-t.C:
		return true
	}
}
