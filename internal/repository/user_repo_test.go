package repository

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

func newUserRepo(t *testing.T) (*UserSQL, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = conn.Close()
	})
	return NewUserSQL(conn, db.DriverSQLite), mock
}

var testCreds = models.Credentials{
	AccessToken:  "acc",
	RefreshToken: "ref",
	ExpiresAt:    time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC),
	DeviceUserID: "dev-1",
}

func TestUserSQL_Upsert(t *testing.T) {
	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantErr    string
	}{
		{
			name: "success",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(upsertUserSQL)).
					WithArgs("a@example.com", "dev-1", "acc", "ref", testCreds.ExpiresAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "exec error",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(upsertUserSQL)).
					WillReturnError(errors.New("db exec failed"))
			},
			wantErr: "upsert user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserRepo(t)
			tt.mockExpect(mock)

			err := repo.Upsert(ctx(t), models.User{Email: "a@example.com", Credentials: testCreds})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserSQL_GetByEmail(t *testing.T) {
	cols := []string{"email", "device_user_id", "access_token", "refresh_token", "expires_at", "created_at", "updated_at"}
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		want       models.User
		wantErr    error
	}{
		{
			name: "found",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("a@example.com").
					WillReturnRows(sqlmock.NewRows(cols).
						AddRow("a@example.com", "dev-1", "acc", "ref", testCreds.ExpiresAt, created, created))
			},
			want: models.User{Email: "a@example.com", Credentials: testCreds, CreatedAt: created, UpdatedAt: created},
		},
		{
			name: "not found",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByEmailSQL)).
					WithArgs("a@example.com").
					WillReturnRows(sqlmock.NewRows(cols))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserRepo(t)
			tt.mockExpect(mock)

			got, err := repo.GetByEmail(ctx(t), "a@example.com")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUserSQL_UpdateCredentials(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(updateCredentialsSQL)).
			WithArgs("dev-1", "acc", "ref", testCreds.ExpiresAt, sqlmock.AnyArg(), "a@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.UpdateCredentials(ctx(t), "a@example.com", testCreds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("missing user", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(updateCredentialsSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.UpdateCredentials(ctx(t), "nobody@example.com", testCreds); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
