package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veris/pkg/domain"
)

func TestPostgresStore_AppendInsertsEvent(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	appID := id.NewApplicationID()
	at := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO audit_events`).
		WithArgs(at, appID.String(), "reviewer", ActionReviewerDecision, "approved", "203.0.113.7", "Chrome/120").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Append(context.Background(), Event{
		Timestamp:     at,
		ApplicationID: appID,
		Actor:         "reviewer",
		Action:        ActionReviewerDecision,
		Detail:        "approved",
		ClientIP:      "203.0.113.7",
		UserAgent:     "Chrome/120",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnError(errors.New("connection reset"))

	err = store.Append(context.Background(), Event{ApplicationID: id.NewApplicationID()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append audit event")
}

func TestPostgresStore_ListByApplicationScansTrail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	appID := id.NewApplicationID()
	first := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Minute)

	rows := sqlmock.NewRows([]string{
		"occurred_at", "application_id", "actor", "action", "detail", "client_ip", "user_agent",
	}).
		AddRow(first, appID.String(), "applicant", ActionApplicationCreated, "", "203.0.113.7", "Chrome/120").
		AddRow(second, appID.String(), "system", ActionStateChanged, "INITIATED -> DOCUMENTS_PENDING", "", "")

	mock.ExpectQuery(`FROM audit_events`).
		WithArgs(appID.String()).
		WillReturnRows(rows)

	events, err := store.ListByApplication(context.Background(), appID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionApplicationCreated, events[0].Action)
	assert.Equal(t, "applicant", events[0].Actor)
	assert.Equal(t, first, events[0].Timestamp)
	assert.Equal(t, ActionStateChanged, events[1].Action)
	assert.Equal(t, appID, events[1].ApplicationID)
	require.NoError(t, mock.ExpectationsWereMet())
}
