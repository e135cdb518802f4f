package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/dispatch"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/queue"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
)

type CampaignStore interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id uint64) (*model.Campaign, error)
	List(ctx context.Context) ([]*model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	Delete(ctx context.Context, id uint64) error
}

// Sender dispatches a campaign to its recipients.
type Sender interface {
	Send(ctx context.Context, c *model.Campaign) (dispatch.Report, error)
}

// EventPublisher announces finished sends.  Nil disables publishing.
type EventPublisher interface {
	PublishCampaignDispatched(ctx context.Context, ev queue.CampaignDispatchedEvent) error
}

type StatsReader interface {
	Stats(ctx context.Context) ([]model.CampaignStat, error)
}

// CampaignAdminHandler manages campaigns, sends them and reports on them.
type CampaignAdminHandler struct {
	Campaigns CampaignStore
	Surface   *admin.Surface
	Sender    Sender
	Events    EventPublisher
	Stats     StatsReader
}

func NewCampaignAdminHandler(campaigns CampaignStore, surface *admin.Surface, sender Sender, events EventPublisher, stats StatsReader) *CampaignAdminHandler {
	return &CampaignAdminHandler{Campaigns: campaigns, Surface: surface, Sender: sender, Events: events, Stats: stats}
}

type campaignReq struct {
	ClientID       uint64    `json:"client_id"`
	Title          string    `json:"title" validate:"required,max=255"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	NumberOfEmails uint32    `json:"number_of_emails"`
	GroupIDs       []uint64  `json:"group_ids"`
	TemplateIDs    []uint64  `json:"template_ids"`
}

func (r campaignReq) apply(c *model.Campaign) {
	if r.ClientID != 0 {
		c.ClientID = r.ClientID
	}
	c.Title = r.Title
	c.StartDate = r.StartDate
	c.EndDate = r.EndDate
	c.NumberOfEmails = r.NumberOfEmails
	c.GroupIDs = r.GroupIDs
	c.TemplateIDs = r.TemplateIDs
}

func (h *CampaignAdminHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Campaigns.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}

func (h *CampaignAdminHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	camp, err := h.Campaigns.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, camp)
}

func (h *CampaignAdminHandler) Create(c echo.Context) error {
	var req campaignReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	camp := new(model.Campaign)
	req.apply(camp)
	if err := h.Surface.PrepareCampaign(ctx, tenant.FromContext(ctx), camp); err != nil {
		return respondError(c, err)
	}
	if err := h.Campaigns.Create(ctx, camp); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, camp)
}

func (h *CampaignAdminHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req campaignReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	camp, err := h.Campaigns.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	req.apply(camp)
	if err := h.Surface.PrepareCampaign(ctx, tenant.FromContext(ctx), camp); err != nil {
		return respondError(c, err)
	}
	if err := h.Campaigns.Update(ctx, camp); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, camp)
}

func (h *CampaignAdminHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Campaigns.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Dashboard returns log counts per campaign and action for the tenant.
func (h *CampaignAdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	stats, err := h.Stats.Stats(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, stats)
}

type sendResp struct {
	dispatch.Report
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Send handles POST /admin/campaigns/:id/send.  Per-recipient failures are
// part of a 200 report; only a campaign with nothing to send is an error.
// The send is bounded by the request's lifetime, not dbTimeout.
func (h *CampaignAdminHandler) Send(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx := c.Request().Context()

	lookupCtx, cancel := requestCtx(c)
	camp, err := h.Campaigns.GetByID(lookupCtx, id)
	cancel()
	if err != nil {
		return respondError(c, err)
	}

	report, err := h.Sender.Send(ctx, camp)
	if err != nil {
		return respondError(c, err)
	}
	h.publish(ctx, c, camp, report)
	return c.JSON(http.StatusOK, sendResp{Report: report, Sent: report.Sent(), Failed: len(report.Failures)})
}

// publish emits the dispatched event.  Failures are logged by the
// publisher and never change the response.
func (h *CampaignAdminHandler) publish(ctx context.Context, c echo.Context, camp *model.Campaign, r dispatch.Report) {
	if h.Events == nil {
		return
	}
	uid, _ := middleware.UserID(c)
	failed := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		failed = append(failed, f.Recipient)
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
	defer cancel()
	_ = h.Events.PublishCampaignDispatched(pctx, queue.CampaignDispatchedEvent{
		CampaignID:       camp.ID,
		ClientID:         camp.ClientID,
		Title:            camp.Title,
		Delivered:        r.Sent(),
		Failed:           len(r.Failures),
		FailedRecipients: failed,
		TriggeredBy:      uid,
		DispatchedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}
