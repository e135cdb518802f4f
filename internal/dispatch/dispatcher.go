// Package dispatch sends a campaign's templates to its recipients.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/phishing-awareness/internal/mail"
	"github.com/iliyamo/phishing-awareness/internal/metrics"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

var (
	// ErrNoRecipients means none of the campaign's groups has a member
	// with an email address.  Nothing was sent.
	ErrNoRecipients = errors.New("no recipients")
	// ErrNoTemplates means the campaign has no templates.  Nothing was sent.
	ErrNoTemplates = errors.New("no templates")
)

// Recipients resolves the distinct emails of members of any of groupIDs.
type Recipients interface {
	RecipientEmails(ctx context.Context, groupIDs []uint64) ([]string, error)
}

// Templates lists the templates attached to a campaign.
type Templates interface {
	ForCampaign(ctx context.Context, campaignID uint64) ([]*model.EmailTemplate, error)
}

// Failure is one recipient that could not be sent to.
type Failure struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// Report is the outcome of a send.  Every recipient is in exactly one of
// Delivered or Failures.
type Report struct {
	CampaignID uint64    `json:"campaign_id"`
	Delivered  []string  `json:"delivered"`
	Failures   []Failure `json:"failures"`
}

// Sent returns the number of delivered emails.
func (r Report) Sent() int { return len(r.Delivered) }

// Dispatcher sends one randomly chosen template per recipient.
type Dispatcher struct {
	recipients  Recipients
	templates   Templates
	sender      mail.Sender
	defaultFrom string
	concurrency int
	pick        func(n int) int
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency bounds the number of sends in flight.  Values below 1
// mean sequential sending.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.concurrency = max(n, 1) }
}

// WithPicker replaces the uniform template draw, for tests.
func WithPicker(pick func(n int) int) Option {
	return func(d *Dispatcher) { d.pick = pick }
}

func New(recipients Recipients, templates Templates, sender mail.Sender, defaultFrom string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		recipients:  recipients,
		templates:   templates,
		sender:      sender,
		defaultFrom: defaultFrom,
		concurrency: 1,
		pick:        rand.IntN,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type outcome struct {
	done bool
	err  error
}

// Send dispatches c.  Recipients and templates are read through the
// tenant in ctx.  A failed recipient never stops the others; when ctx is
// cancelled the recipients not yet attempted are reported as failed with
// the context error, and the ones already delivered stay delivered.
// A campaign owned by a client the scope cannot see is refused with
// repository.ErrForbidden before anything is read.
func (d *Dispatcher) Send(ctx context.Context, c *model.Campaign) (Report, error) {
	log := zerolog.Ctx(ctx).With().Uint64("campaign_id", c.ID).Logger()
	rep := Report{CampaignID: c.ID, Delivered: []string{}, Failures: []Failure{}}

	if !tenant.FromContext(ctx).Allows(c.ClientID) {
		return rep, fmt.Errorf("campaign %d: %w", c.ID, repository.ErrForbidden)
	}

	to, err := d.recipients.RecipientEmails(ctx, c.GroupIDs)
	if err != nil {
		return rep, err
	}
	if len(to) == 0 {
		return rep, ErrNoRecipients
	}
	tpls, err := d.templates.ForCampaign(ctx, c.ID)
	if err != nil {
		return rep, err
	}
	if len(tpls) == 0 {
		return rep, ErrNoTemplates
	}

	start := time.Now()
	results := make([]outcome, len(to))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, addr := range to {
		if ctx.Err() != nil {
			break
		}
		tpl := tpls[d.pick(len(tpls))]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = outcome{done: true, err: err}
				return nil
			}
			err := d.sender.Send(ctx, d.message(tpl, addr))
			results[i] = outcome{done: true, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, addr := range to {
		res := results[i]
		switch {
		case !res.done:
			rep.Failures = append(rep.Failures, Failure{Recipient: addr, Error: ctx.Err().Error()})
		case res.err != nil:
			log.Warn().Err(res.err).Str("recipient", addr).Msg("campaign email failed")
			rep.Failures = append(rep.Failures, Failure{Recipient: addr, Error: res.err.Error()})
		default:
			rep.Delivered = append(rep.Delivered, addr)
		}
	}
	metrics.AddDispatched(len(rep.Delivered), len(rep.Failures), time.Since(start).Seconds())
	log.Info().Int("delivered", len(rep.Delivered)).Int("failed", len(rep.Failures)).Msg("campaign sent")
	return rep, nil
}

func (d *Dispatcher) message(t *model.EmailTemplate, to string) mail.Message {
	from := t.Sender
	if from == "" {
		from = d.defaultFrom
	}
	return mail.Message{From: from, To: to, Subject: t.Subject, Body: t.Body}
}
