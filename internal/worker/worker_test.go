package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bcn-golf/backend/config"
	"github.com/bcn-golf/backend/internal/maillog"
	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/queue"
)

type fakeQueue struct {
	dequeue func(ctx context.Context) (*queue.Job, string, error)
	retry   func(ctx context.Context, job *queue.Job) error
}

func (f *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) { return f.dequeue(ctx) }
func (f *fakeQueue) Retry(ctx context.Context, job *queue.Job) error         { return f.retry(ctx, job) }

func TestRunStopsDuringBackoff(t *testing.T) {
	// A failing queue puts the loop into its retry backoff; cancellation
	// must end the loop without waiting the backoff out.
	q := &fakeQueue{
		dequeue: func(context.Context) (*queue.Job, string, error) {
			return nil, "", errors.New("redis gone")
		},
	}
	p := NewDecisionMailer(nil, q, config.EmailConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop promptly after cancellation")
	}
}

func TestComposeDecision(t *testing.T) {
	from := config.EmailConfig{FromAddress: "noreply@bcngolf.club", FromName: "BCN Golf Club"}

	t.Run("approved membership", func(t *testing.T) {
		rec := &maillog.Recipient{Email: "anna@example.com", FirstName: "Anna", Kind: models.KindMembership}
		subject, body := composeDecision(rec, models.OutcomeApproved, "", from)
		assert.Equal(t, "Your membership application has been approved", subject)
		assert.Contains(t, body, "Hi Anna,")
		assert.Contains(t, body, "membership application has been approved")
		assert.NotContains(t, body, "Comment from the reviewer")
		assert.Contains(t, body, "BCN Golf Club")
		assert.Contains(t, body, "noreply@bcngolf.club")
	})

	t.Run("rejected entry with comment", func(t *testing.T) {
		rec := &maillog.Recipient{Email: "marc@example.com", FirstName: "Marc", Kind: models.KindTournamentEntry}
		subject, body := composeDecision(rec, models.OutcomeRejected, "capacity exhausted", from)
		assert.Equal(t, "Your tournament entry has been rejected", subject)
		assert.Contains(t, body, "Comment from the reviewer: capacity exhausted")
	})
}
