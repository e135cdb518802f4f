package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/model"
	"github.com/iliyamo/phishing-awareness/internal/repository"
)

type LogReader interface {
	List(ctx context.Context, f repository.LogFilter) ([]*model.PhishingTestLog, error)
}

// LogHandler lists phishing test logs.  Logs are append-only, so there
// is no write endpoint.
type LogHandler struct {
	Logs LogReader
}

func NewLogHandler(logs LogReader) *LogHandler {
	return &LogHandler{Logs: logs}
}

const maxLogPage = 500

// List handles GET /admin/logs?action=&campaign_id=&limit=.
func (h *LogHandler) List(c echo.Context) error {
	f := repository.LogFilter{Limit: maxLogPage}
	if v := c.QueryParam("action"); v != "" {
		a := model.Action(v)
		if !a.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_action"})
		}
		f.Action = a
	}
	if v := c.QueryParam("campaign_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_campaign_id"})
		}
		f.CampaignID = id
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_limit"})
		}
		f.Limit = min(n, maxLogPage)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Logs.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return items(c, list)
}
