package zendesk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/marcsantiago/gocron"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	newStatus  = "new"
	openStatus = "open"

	placeholderAnswer = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
)

// TicketService searches and updates tickets. Client implements it
type TicketService interface {
	SearchTickets(ctx context.Context, query SearchQuery) (tickets []Ticket, err error)
	UpdateTicket(ctx context.Context, id int64, update TicketUpdate) (err error)
}

// Querier answers questions. An apiclient.Client implements it
type Querier interface {
	Query(ctx context.Context, req apiclient.QueryRequest) (resp *apiclient.QueryResponse, err error)
}

// PlaceholderQuerier answers every question with placeholder text, without calling the api
type PlaceholderQuerier struct{}

// Query returns the placeholder answer
func (PlaceholderQuerier) Query(ctx context.Context, req apiclient.QueryRequest) (resp *apiclient.QueryResponse, err error) {
	return &apiclient.QueryResponse{Question: req.Question, Answer: placeholderAnswer}, nil
}

type responderMetrics struct {
	ticketsSeen     metric.Int64Counter
	ticketsAnswered metric.Int64Counter
	ticketFailures  metric.Int64Counter
}

// Responder answers new tickets with the question-answering api
type Responder struct {
	tickets TicketService
	api     Querier
	cfg     *config.ZendeskConfig
	log     *zap.Logger
	metrics responderMetrics

	// running is held for the duration of a round of answers
	running sync.Mutex
}

// NewResponder creates a new Responder
func NewResponder(tickets TicketService, api Querier, cfg *config.ZendeskConfig, log *zap.Logger, meter metric.Meter) (r *Responder, err error) {
	r = &Responder{tickets: tickets, api: api, cfg: cfg, log: log}

	if r.metrics.ticketsSeen, err = meter.Int64Counter("ticketsSeen"); err != nil {
		return nil, err
	}

	if r.metrics.ticketsAnswered, err = meter.Int64Counter("ticketsAnswered"); err != nil {
		return nil, err
	}

	if r.metrics.ticketFailures, err = meter.Int64Counter("ticketFailures"); err != nil {
		return nil, err
	}

	return r, nil
}

// Run searches and answers new tickets every fetch interval until ctx is done. The first search
// happens one interval after the start
func (r *Responder) Run(ctx context.Context) (err error) {
	sc := gocron.NewScheduler()

	j := sc.Every(uint64(r.cfg.FetchInterval/time.Second), false).Seconds()
	if err = j.Err(); err != nil {
		return errors.Wrap(err, "failed to schedule the search for new tickets")
	}
	j.Do(r.scheduledRound, ctx)

	r.log.Info("Scheduled the search for new zendesk tickets", zap.Duration("interval", r.cfg.FetchInterval), zap.Strings("tags", r.cfg.IncludeTags))

	stop := sc.Start()
	<-ctx.Done()
	stop <- true

	// Wait for a round in flight
	r.running.Lock()
	defer r.running.Unlock()

	r.log.Info("Stopped answering zendesk tickets")

	return nil
}

// scheduledRound answers new tickets unless the previous round is still going
func (r *Responder) scheduledRound(ctx context.Context) {
	if !r.running.TryLock() {
		r.log.Warn("Skipping search for new tickets, the previous round is still in progress")
		return
	}
	defer r.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	if _, err := r.RespondToNewTickets(ctx); err != nil {
		r.log.Error("Failed to answer new tickets", zap.Error(err))
	}
}

// RespondToNewTickets searches new tickets and answers them in batches of at most MaxRequests
// concurrent answers, pausing RequestInterval between batches. A ticket that fails to be answered
// is logged and doesn't stop the others
func (r *Responder) RespondToNewTickets(ctx context.Context) (answered int, err error) {
	tickets, err := r.tickets.SearchTickets(ctx, SearchQuery{Status: newStatus, Tags: r.cfg.IncludeTags, ExcludedTags: r.cfg.ExcludeTags})
	if err != nil {
		return 0, errors.Wrap(err, "failed to search new tickets")
	}

	r.metrics.ticketsSeen.Add(ctx, int64(len(tickets)))
	if len(tickets) == 0 {
		r.log.Debug("No new zendesk tickets")
		return 0, nil
	}

	r.log.Info("Answering new zendesk tickets", zap.Int("count", len(tickets)))

	var count atomic.Int64
	for start := 0; start < len(tickets); start += r.cfg.MaxRequests {
		end := min(start+r.cfg.MaxRequests, len(tickets))

		var g errgroup.Group
		for _, t := range tickets[start:end] {
			g.Go(func() error {
				if r.respond(ctx, t) {
					count.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(tickets) {
			if err = pause(ctx, r.cfg.RequestInterval); err != nil {
				return int(count.Load()), err
			}
		}
	}

	r.log.Info("Done answering zendesk tickets", zap.Int("count", len(tickets)), zap.Int64("answered", count.Load()))

	return int(count.Load()), nil
}

// respond answers a ticket with a private comment, opens it and tags it as answered. The error
// answer is posted when the api fails
func (r *Responder) respond(ctx context.Context, t Ticket) (ok bool) {
	log := r.log.With(zap.Int64("ticket", t.ID))

	answer := r.cfg.ErrorAnswer
	resp, err := r.api.Query(ctx, apiclient.QueryRequest{
		Question:    ExtractQuestion(t),
		ChatHistory: []apiclient.QuestionAnswer{},
		Language:    r.cfg.Language,
		Application: r.cfg.Application,
	})

	switch {
	case err != nil:
		log.Error("Failed to query the api", zap.Error(err))
		r.metrics.ticketFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "query")))
	case resp == nil:
		log.Error("Received no answer from the api")
		r.metrics.ticketFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "query")))
	default:
		answer = resp.Answer
	}

	update := TicketUpdate{
		Comment: Comment{Body: FormatAnswer(r.cfg.Intro, answer, r.cfg.Signature), Public: false},
		Status:  openStatus,
		Tags:    answeredTags(t.Tags),
	}

	if err = r.tickets.UpdateTicket(ctx, t.ID, update); err != nil {
		log.Error("Failed to update ticket", zap.Error(err))
		r.metrics.ticketFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", "update")))
		return false
	}

	r.metrics.ticketsAnswered.Add(ctx, 1)
	log.Debug("Answered ticket")

	return true
}

// answeredTags returns a copy of tags with the answered tag added
func answeredTags(tags []string) (answered []string) {
	answered = make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if tag != AnsweredTag {
			answered = append(answered, tag)
		}
	}

	return append(answered, AnsweredTag)
}

// pause waits for d or until ctx is done
func pause(ctx context.Context, d time.Duration) (err error) {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
