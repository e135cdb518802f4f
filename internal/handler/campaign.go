package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
)

// CampaignReader loads a campaign visible to the tenant in ctx.
type CampaignReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Campaign, error)
}

// LogAppender records phishing test interactions.
type LogAppender interface {
	Append(ctx context.Context, l *model.PhishingTestLog) error
}

// CampaignHandler serves the endpoints recipients reach from a campaign
// email: reporting it, or landing on the tutorial after clicking.
type CampaignHandler struct {
	Campaigns CampaignReader
	Logs      LogAppender
}

func NewCampaignHandler(campaigns CampaignReader, logs LogAppender) *CampaignHandler {
	return &CampaignHandler{Campaigns: campaigns, Logs: logs}
}

var tutorialTips = []string{
	"Check the sender address, not only the display name.",
	"Hover over links before clicking and compare the real destination.",
	"Be wary of urgency, threats or unexpected attachments.",
	"Report suspicious messages instead of deleting them.",
}

// Report handles /campaigns/:id/report, as a POST from the portal or a GET
// from the link in the email.
func (h *CampaignHandler) Report(c echo.Context) error {
	l, err := h.record(c, model.ActionReported)
	if err != nil || l == nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "reported", "log": l})
}

// Tutorial handles /campaigns/:id/tutorial.  The click is logged and
// the awareness material returned.
func (h *CampaignHandler) Tutorial(c echo.Context) error {
	l, err := h.record(c, model.ActionClicked)
	if err != nil || l == nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"campaign_id": l.CampaignID,
		"title":       l.CampaignTitle,
		"message":     "This email was a phishing simulation.",
		"tips":        tutorialTips,
	})
}

// record appends a log for the caller.  A nil log with a nil error means
// the response was already written.
func (h *CampaignHandler) record(c echo.Context, action model.Action) (*model.PhishingTestLog, error) {
	id, ok := parseID(c)
	if !ok {
		return nil, invalidID(c)
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	camp, err := h.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, respondError(c, err)
	}
	l := &model.PhishingTestLog{UserID: uid, CampaignID: camp.ID, Action: action, CampaignTitle: camp.Title}
	if err := h.Logs.Append(ctx, l); err != nil {
		return nil, respondError(c, err)
	}
	return l, nil
}
