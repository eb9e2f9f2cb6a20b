package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"lead-radar/internal/auth"
	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
	"lead-radar/internal/repository/sqlite"
)

type fixture struct {
	db         *sql.DB
	logger     *logrus.Logger
	users      repository.UserRepository
	businesses repository.BusinessRepository
	leads      repository.LeadRepository
	campaigns  repository.CampaignRepository
	pages      repository.LandingPageRepository
	insights   repository.InsightRepository
	reports    repository.ReportRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db, goose.NopLogger()))

	logger, _ := test.NewNullLogger()
	return &fixture{
		db:         db,
		logger:     logger,
		users:      sqlite.NewUserRepository(db),
		businesses: sqlite.NewBusinessRepository(db),
		leads:      sqlite.NewLeadRepository(db),
		campaigns:  sqlite.NewCampaignRepository(db),
		pages:      sqlite.NewLandingPageRepository(db),
		insights:   sqlite.NewInsightRepository(db),
		reports:    sqlite.NewReportRepository(db),
	}
}

func (f *fixture) userService(t *testing.T, scheme string) UserService {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(scheme)
	require.NoError(t, err)
	return NewUserService(f.users, hasher, f.logger)
}

// owner registers a user with a business and returns the user id.
func (f *fixture) owner(t *testing.T, email string) (string, *domain.Business) {
	t.Helper()
	user, err := f.userService(t, auth.SchemeBcrypt).Register(context.Background(), email, "Secret123!", "Owner")
	require.NoError(t, err)
	business, err := NewBusinessService(f.businesses).Create(context.Background(), user.ID, BusinessInput{
		Name:  "Padaria Central",
		Niche: "padaria",
		City:  "Recife",
	})
	require.NoError(t, err)
	return user.ID, business
}

func (f *fixture) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}
