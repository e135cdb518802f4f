package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

var attachmentCols = []string{"id", "name", "path", "url", "uploaded_at", "client_id", "client_name", "description"}

func TestAttachmentRepo_ListTenantJoinsSideTable(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attachment_tenants at ON at.attachment_id = a.id")+".*"+
		regexp.QuoteMeta("WHERE at.client_id = ? ORDER BY a.id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(attachmentCols).
			AddRow(8, "policy.pdf", "attachments/policy.pdf", "/media/attachments/policy.pdf", now, 2, "Acme", "HR policy"))

	out, err := NewAttachmentRepo(db).List(asTenant(acme))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ClientID)
	assert.Equal(t, uint64(2), *out[0].ClientID)
	assert.Equal(t, "Acme", out[0].ClientLabel())
	assert.Equal(t, "HR policy", out[0].Description)
}

func TestAttachmentRepo_SuperadminSeesRowsWithoutSideRow(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1 = 1 ORDER BY a.id")).
		WillReturnRows(sqlmock.NewRows(attachmentCols).
			AddRow(8, "policy.pdf", "attachments/policy.pdf", "/media/attachments/policy.pdf", now, 2, "Acme", "").
			AddRow(9, "old.pdf", "attachments/old.pdf", "/media/attachments/old.pdf", now, nil, "", ""))

	out, err := NewAttachmentRepo(db).List(asTenant(platform))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[1].ClientID)
	assert.Equal(t, model.NoClientLabel, out[1].ClientLabel())
	assert.Empty(t, out[1].Description)
}

func TestAttachmentRepo_ListUnsetScopeSeesNothing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1 = 0 ORDER BY a.id")).
		WillReturnRows(sqlmock.NewRows(attachmentCols))

	out, err := NewAttachmentRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAttachmentRepo_GetByIDOtherTenantNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = ? AND at.client_id = ?")).
		WithArgs(9, 2).
		WillReturnRows(sqlmock.NewRows(attachmentCols))

	_, err := NewAttachmentRepo(db).GetByID(asTenant(acme), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachmentRepo_DeleteHiddenRowNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE a FROM attachments a LEFT JOIN attachment_tenants at ON at.attachment_id = a.id WHERE a.id = ? AND at.client_id = ?")).
		WithArgs(9, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewAttachmentRepo(db).Delete(asTenant(acme), 9), ErrNotFound)
}
