package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

var templateCols = []string{"id", "client_id", "name", "sender", "subject", "body"}

func TestTemplateRepo_ListTenantSeesOwnRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_templates t WHERE t.client_id = ? ORDER BY t.id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(templateCols).AddRow(5, 2, "Invoice", nil, "Overdue", "<p>pay</p>"))

	out, err := NewTemplateRepo(db).List(asTenant(acme))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].ClientID)
	assert.Empty(t, out[0].Sender)
}

func TestTemplateRepo_ListSuperadminSeesAll(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_templates t WHERE 1 = 1 ORDER BY t.id")).
		WillReturnRows(sqlmock.NewRows(templateCols).
			AddRow(5, 2, "Invoice", "billing@acme.test", "Overdue", "").
			AddRow(6, 3, "Reset", nil, "Password", ""))

	out, err := NewTemplateRepo(db).List(asTenant(platform))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "billing@acme.test", out[0].Sender)
	assert.Equal(t, uint64(3), out[1].ClientID)
}

func TestTemplateRepo_ForCampaignScoped(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN campaign_templates ct ON ct.template_id = t.id WHERE ct.campaign_id = ? AND t.client_id = ? ORDER BY t.id")).
		WithArgs(4, 2).
		WillReturnRows(sqlmock.NewRows(templateCols).AddRow(5, 2, "Invoice", nil, "Overdue", ""))

	out, err := NewTemplateRepo(db).ForCampaign(asTenant(acme), 4)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(5), out[0].ID)
}

func TestTemplateRepo_ForCampaignUnsetScopeSeesNothing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ct.campaign_id = ? AND 1 = 0 ORDER BY t.id")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(templateCols))

	out, err := NewTemplateRepo(db).ForCampaign(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTemplateRepo_UpdateHiddenRowNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM email_templates t WHERE t.id = ? AND t.client_id = ?")).
		WithArgs(9, 2).
		WillReturnRows(sqlmock.NewRows(templateCols))

	err := NewTemplateRepo(db).Update(asTenant(acme), &model.EmailTemplate{ID: 9, ClientID: 2, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateRepo_DeleteOtherTenant(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM email_templates WHERE id = ? AND client_id = ?")).
		WithArgs(9, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewTemplateRepo(db).Delete(asTenant(acme), 9), ErrNotFound)
}
