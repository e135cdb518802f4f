package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

// LogRepo appends and reads phishing_test_logs.  Logs have no client
// column; they are scoped through their campaign.
type LogRepo struct{ DB *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{DB: db} }

// Append records one interaction.  A zero Timestamp is set to now (UTC).
func (r *LogRepo) Append(ctx context.Context, l *model.PhishingTestLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO phishing_test_logs (user_id, campaign_id, action, timestamp) VALUES (?, ?, ?, ?)",
		l.UserID, l.CampaignID, string(l.Action), l.Timestamp)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// LogFilter narrows List.  Zero values match everything.
type LogFilter struct {
	CampaignID uint64
	Action     model.Action
	Limit      int
}

// List returns the newest logs first, limited to the current tenant's campaigns.
func (r *LogRepo) List(ctx context.Context, f LogFilter) ([]*model.PhishingTestLog, error) {
	clause, args := tenantClause(ctx, "c.client_id")
	q := `SELECT l.id, l.user_id, l.campaign_id, l.action, l.timestamp, u.username, c.title
	      FROM phishing_test_logs l
	      JOIN campaigns c ON c.id = l.campaign_id
	      JOIN users u ON u.id = l.user_id
	      WHERE ` + clause
	if f.CampaignID != 0 {
		q += " AND l.campaign_id = ?"
		args = append(args, f.CampaignID)
	}
	if f.Action != "" {
		q += " AND l.action = ?"
		args = append(args, string(f.Action))
	}
	q += " ORDER BY l.timestamp DESC, l.id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PhishingTestLog
	for rows.Next() {
		l := new(model.PhishingTestLog)
		var action string
		if err := rows.Scan(&l.ID, &l.UserID, &l.CampaignID, &action, &l.Timestamp, &l.Username, &l.CampaignTitle); err != nil {
			return nil, err
		}
		l.Action = model.Action(action)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Stats counts logs per campaign and action for the dashboard.
func (r *LogRepo) Stats(ctx context.Context) ([]model.CampaignStat, error) {
	clause, args := tenantClause(ctx, "c.client_id")
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.title, l.action, COUNT(l.id)
		 FROM phishing_test_logs l
		 JOIN campaigns c ON c.id = l.campaign_id
		 WHERE `+clause+`
		 GROUP BY c.id, c.title, l.action
		 ORDER BY c.id, l.action`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CampaignStat
	for rows.Next() {
		var s model.CampaignStat
		var action string
		if err := rows.Scan(&s.CampaignID, &s.CampaignTitle, &action, &s.Count); err != nil {
			return nil, err
		}
		s.Action = model.Action(action)
		out = append(out, s)
	}
	return out, rows.Err()
}
