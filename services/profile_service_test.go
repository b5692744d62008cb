package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/database"
	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/pkg/cache"
	"github.com/akinalp/kolab/repository"
)

func str(s string) *string { return &s }

type profileFixture struct {
	svc   ProfileService
	repo  repository.ProfileRepository
	db    *database.DB
	users map[string]string // email → userID
}

func newProfileFixture(t *testing.T, emails ...string) *profileFixture {
	t.Helper()
	db := newTestDB(t)
	auth := newAuthService(t, db)

	profileCache := cache.New[string, models.Profile](time.Minute, time.Minute)
	t.Cleanup(profileCache.Close)

	repo := repository.NewSQLiteProfileRepo(db.Conn)
	f := &profileFixture{
		svc:   NewProfileService(repo, profileCache),
		repo:  repo,
		db:    db,
		users: make(map[string]string),
	}
	for _, e := range emails {
		f.users[e] = registerUser(t, auth, e).User.ID
	}
	return f
}

func (f *profileFixture) update(t *testing.T, userID string, req *models.UpdateProfileRequest) {
	t.Helper()
	_, err := f.svc.UpdateProfile(context.Background(), userID, req)
	require.NoError(t, err)
}

func TestGetProfileCaches(t *testing.T) {
	f := newProfileFixture(t, "ada@example.edu")
	ctx := context.Background()
	id := f.users["ada@example.edu"]

	first, err := f.svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, first.FirstName)

	// Repo'ya doğrudan yazılan değişiklik cache yüzünden görünmez.
	require.NoError(t, f.repo.Update(ctx, id, &models.UpdateProfileRequest{FirstName: str("Ada")}))
	stale, err := f.svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stale.FirstName)

	// Service üzerinden update cache entry'sini düşürür — sonraki okuma
	// tüm güncel alanları görür.
	f.update(t, id, &models.UpdateProfileRequest{LastName: str("Lovelace")})
	fresh, err := f.svc.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, fresh.FirstName)
	assert.Equal(t, "Ada", *fresh.FirstName)
}

func TestGetProfileNotFound(t *testing.T) {
	f := newProfileFixture(t)
	_, err := f.svc.GetProfile(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUpdateProfileValidation(t *testing.T) {
	f := newProfileFixture(t, "ada@example.edu")
	id := f.users["ada@example.edu"]

	_, err := f.svc.UpdateProfile(context.Background(), id, &models.UpdateProfileRequest{
		Username: str("x"), // çok kısa
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.svc.UpdateProfile(context.Background(), id, &models.UpdateProfileRequest{
		Username: str("has spaces"),
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	f := newProfileFixture(t, "ada@example.edu", "grace@example.edu")

	f.update(t, f.users["ada@example.edu"], &models.UpdateProfileRequest{Username: str("ada_l")})
	_, err := f.svc.UpdateProfile(context.Background(), f.users["grace@example.edu"], &models.UpdateProfileRequest{
		Username: str("ada_l"),
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestSearchExcludesSelf(t *testing.T) {
	f := newProfileFixture(t, "ada@example.edu", "grace@example.edu")
	ctx := context.Background()
	self := f.users["ada@example.edu"]

	results, err := f.svc.Search(ctx, self, models.ProfileSearchParams{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, f.users["grace@example.edu"], results[0].ID)
}

func TestSearchFilters(t *testing.T) {
	f := newProfileFixture(t, "self@example.edu", "ada@example.edu", "grace@example.edu", "alan@example.edu")
	ctx := context.Background()
	self := f.users["self@example.edu"]

	f.update(t, f.users["ada@example.edu"], &models.UpdateProfileRequest{
		FirstName:           str("Ada"),
		LastName:            str("Lovelace"),
		Institution:         str("ITU"),
		Country:             str("Turkey"),
		PrimaryResearchArea: str("Computation"),
	})
	f.update(t, f.users["grace@example.edu"], &models.UpdateProfileRequest{
		FirstName:   str("Grace"),
		LastName:    str("Hopper"),
		Institution: str("Yale"),
		Country:     str("USA"),
	})
	f.update(t, f.users["alan@example.edu"], &models.UpdateProfileRequest{
		FirstName:   str("Alan"),
		Institution: str("ITU"),
		Country:     str("Turkey"),
	})

	// Query; isim ve araştırma alanında case-insensitive arar.
	results, err := f.svc.Search(ctx, self, models.ProfileSearchParams{Query: "lovelace"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ada", *results[0].FirstName)

	results, err = f.svc.Search(ctx, self, models.ProfileSearchParams{Query: "computation"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Kurum + ülke filtresi birlikte daraltır.
	results, err = f.svc.Search(ctx, self, models.ProfileSearchParams{Institution: "itu", Country: "turkey"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.svc.Search(ctx, self, models.ProfileSearchParams{Query: "lovelace", Institution: "Yale"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSortByCollaborations(t *testing.T) {
	f := newProfileFixture(t, "self@example.edu", "ada@example.edu", "grace@example.edu")
	ctx := context.Background()
	self := f.users["self@example.edu"]

	require.NoError(t, f.repo.IncrementCollaborationCount(ctx, f.users["grace@example.edu"]))
	require.NoError(t, f.repo.IncrementCollaborationCount(ctx, f.users["grace@example.edu"]))
	require.NoError(t, f.repo.IncrementCollaborationCount(ctx, f.users["ada@example.edu"]))

	results, err := f.svc.Search(ctx, self, models.ProfileSearchParams{Sort: models.ProfileSortCollaborations})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, f.users["grace@example.edu"], results[0].ID)
	assert.Equal(t, 2, results[0].CollaborationCount)
}

func TestSearchInvalidSortRejected(t *testing.T) {
	f := newProfileFixture(t, "ada@example.edu")

	_, err := f.svc.Search(context.Background(), f.users["ada@example.edu"], models.ProfileSearchParams{
		Sort: "alphabetical",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestSearchLimitAndOffset(t *testing.T) {
	f := newProfileFixture(t, "self@example.edu", "a@example.edu", "b@example.edu", "c@example.edu")
	ctx := context.Background()
	self := f.users["self@example.edu"]

	page1, err := f.svc.Search(ctx, self, models.ProfileSearchParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := f.svc.Search(ctx, self, models.ProfileSearchParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}
