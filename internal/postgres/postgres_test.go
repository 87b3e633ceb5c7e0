package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

type openCall struct {
	user     string
	password string
	database string
}

func newMockProvisioner(t *testing.T) (*Provisioner, sqlmock.Sqlmock, *[]openCall) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	calls := &[]openCall{}
	open := func(_ context.Context, user, password, database string) (*sql.DB, error) {
		*calls = append(*calls, openCall{user: user, password: password, database: database})
		return db, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{Host: "localhost", User: "postgres", Password: "inesdata"}
	return NewProvisionerWithOpener(cfg, open, logger), mock, calls
}

func TestProvisioner_CreateDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p, mock, calls := newMockProvisioner(t)

		mock.ExpectExec(`CREATE USER "demo_rsusr" WITH ENCRYPTED PASSWORD 'pa''ss'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE DATABASE "demo_rs"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`ALTER DATABASE "demo_rs" OWNER TO "demo_rsusr"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`GRANT ALL PRIVILEGES ON DATABASE "demo_rs" TO "demo_rsusr"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectClose()

		err := p.CreateDatabase(ctx, "demo_rs", "demo_rsusr", "pa'ss")
		require.NoError(t, err)
		assert.Equal(t, []openCall{{user: "postgres", password: "inesdata", database: ""}}, *calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DuplicateDatabaseAbortsSequence", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)

		mock.ExpectExec(`CREATE USER "demo_rsusr" WITH ENCRYPTED PASSWORD 'x'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE DATABASE "demo_rs"`).
			WillReturnError(&pq.Error{Code: "42P04", Message: `database "demo_rs" already exists`})
		mock.ExpectClose()

		err := p.CreateDatabase(ctx, "demo_rs", "demo_rsusr", "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Contains(t, err.Error(), "already exists")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Connect", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		open := func(context.Context, string, string, string) (*sql.DB, error) {
			return nil, errors.New("connection refused")
		}
		p := NewProvisionerWithOpener(Config{Host: "db"}, open, logger)

		err := p.CreateDatabase(ctx, "a", "a", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to postgres at db")
	})
}

func TestProvisioner_DeleteDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)
		mock.ExpectExec(`DROP DATABASE "conn_a"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DROP USER "conn_a"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectClose()

		require.NoError(t, p.DeleteDatabase(ctx, "conn_a", "conn_a"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DropUserRunsAfterDropDatabaseFails", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)
		mock.ExpectExec(`DROP DATABASE "conn_a"`).WillReturnError(errors.New("does not exist"))
		mock.ExpectExec(`DROP USER "conn_a"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectClose()

		err := p.DeleteDatabase(ctx, "conn_a", "conn_a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to drop database conn_a")
		assert.NotContains(t, err.Error(), "failed to drop user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BothFail", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)
		mock.ExpectExec(`DROP DATABASE "conn_a"`).WillReturnError(errors.New("boom"))
		mock.ExpectExec(`DROP USER "conn_a"`).WillReturnError(errors.New("boom"))
		mock.ExpectClose()

		err := p.DeleteDatabase(ctx, "conn_a", "conn_a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to drop database conn_a")
		assert.Contains(t, err.Error(), "failed to drop user conn_a")
	})
}

func TestProvisioner_RegisterConnector(t *testing.T) {
	ctx := context.Background()
	query := `INSERT INTO public.edc_participant (participant_id, url, created_at, shared_url)
		VALUES ($1, $2, EXTRACT(EPOCH FROM NOW())::BIGINT, $3)`

	tests := []struct {
		name       string
		env        string
		wantURL    string
		wantShared string
	}{
		{
			name:       "DEV",
			env:        "DEV",
			wantURL:    "http://conn-a:19194/protocol",
			wantShared: "http://conn-a:19196/shared",
		},
		{
			name:       "PRO",
			env:        "PRO",
			wantURL:    "https://conn-a-demo.ds.inesdata-project.eu/protocol",
			wantShared: "https://conn-a-demo.ds.inesdata-project.eu/shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mock, calls := newMockProvisioner(t)
			mock.ExpectExec(query).
				WithArgs("conn-a", tt.wantURL, tt.wantShared).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectClose()

			require.NoError(t, p.RegisterConnector(ctx, "demo_rs", "conn-a", "demo", tt.env))
			assert.Equal(t, "demo_rs", (*calls)[0].database)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Error_DuplicateParticipant", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)
		mock.ExpectExec(query).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
		mock.ExpectClose()

		err := p.RegisterConnector(ctx, "demo_rs", "conn-a", "demo", "DEV")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to register connector conn-a")
		assert.False(t, apperrors.Is(err, apperrors.ErrConflict))
	})
}

func TestProvisioner_CheckConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p, mock, calls := newMockProvisioner(t)
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectClose()

		require.NoError(t, p.CheckConnection(ctx, "conn_a", "conn_a", "secret"))
		assert.Equal(t, []openCall{{user: "conn_a", password: "secret", database: "conn_a"}}, *calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Query", func(t *testing.T) {
		p, mock, _ := newMockProvisioner(t)
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("permission denied"))
		mock.ExpectClose()

		err := p.CheckConnection(ctx, "conn_a", "conn_a", "secret")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query conn_a")
	})
}

func TestParticipantURLs(t *testing.T) {
	url, shared := ParticipantURLs("c1", "ds", "dev")
	assert.Equal(t, "http://c1:19194/protocol", url)
	assert.Equal(t, "http://c1:19196/shared", shared)
}
