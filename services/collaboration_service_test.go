package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/repository"
)

type collabFixture struct {
	svc         CollaborationService
	profileRepo repository.ProfileRepository
	requester   string
	target      string
}

func newCollabFixture(t *testing.T) *collabFixture {
	t.Helper()
	db := newTestDB(t)
	auth := newAuthService(t, db)

	f := &collabFixture{
		svc: NewCollaborationService(
			repository.NewSQLiteCollaborationRepo(db.Conn),
			repository.NewSQLiteProfileRepo(db.Conn),
			repository.NewSQLiteUserRepo(db.Conn),
		),
		profileRepo: repository.NewSQLiteProfileRepo(db.Conn),
		requester:   registerUser(t, auth, "ayse@example.edu").User.ID,
		target:      registerUser(t, auth, "mehmet@example.edu").User.ID,
	}
	return f
}

func (f *collabFixture) count(t *testing.T, userID string) int {
	t.Helper()
	p, err := f.profileRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return p.CollaborationCount
}

func TestSetStatusSelfRejected(t *testing.T) {
	f := newCollabFixture(t)

	_, err := f.svc.SetStatus(context.Background(), f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.requester,
		Status:         models.CollaborationStatusSaved,
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestSetStatusUnknownCollaborator(t *testing.T) {
	f := newCollabFixture(t)

	_, err := f.svc.SetStatus(context.Background(), f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: "no-such-user",
		Status:         models.CollaborationStatusSaved,
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSetStatusInvalidStatus(t *testing.T) {
	f := newCollabFixture(t)

	_, err := f.svc.SetStatus(context.Background(), f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.target,
		Status:         "friended",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestSetStatusUpsertsSameRow(t *testing.T) {
	f := newCollabFixture(t)
	ctx := context.Background()

	first, err := f.svc.SetStatus(ctx, f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.target,
		Status:         models.CollaborationStatusSaved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CollaborationStatusSaved, first.Status)

	// Aynı çift için yeni durum aynı satırı günceller — ID değişmez.
	second, err := f.svc.SetStatus(ctx, f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.target,
		Status:         models.CollaborationStatusContacted,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.CollaborationStatusContacted, second.Status)

	list, err := f.svc.List(ctx, f.requester, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestFirstCollaborationIncrementsBothCounts(t *testing.T) {
	f := newCollabFixture(t)
	ctx := context.Background()
	set := func(status models.CollaborationStatus) {
		_, err := f.svc.SetStatus(ctx, f.requester, &models.SetCollaborationStatusRequest{
			CollaboratorID: f.target,
			Status:         status,
		})
		require.NoError(t, err)
	}

	set(models.CollaborationStatusSaved)
	assert.Equal(t, 0, f.count(t, f.requester))

	// "collaborated"a ilk geçiş iki tarafın sayacını da artırır.
	set(models.CollaborationStatusCollaborated)
	assert.Equal(t, 1, f.count(t, f.requester))
	assert.Equal(t, 1, f.count(t, f.target))

	// Aynı duruma tekrar yazmak sayacı artırmaz.
	set(models.CollaborationStatusCollaborated)
	assert.Equal(t, 1, f.count(t, f.requester))

	// declined'a düşüp tekrar collaborated'a çıkmak yeni bir işbirliğidir.
	set(models.CollaborationStatusDeclined)
	set(models.CollaborationStatusCollaborated)
	assert.Equal(t, 2, f.count(t, f.requester))
	assert.Equal(t, 2, f.count(t, f.target))
}

func TestListFiltersByStatusAndJoinsProfile(t *testing.T) {
	f := newCollabFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.target,
		Status:         models.CollaborationStatusSaved,
	})
	require.NoError(t, err)

	saved, err := f.svc.List(ctx, f.requester, models.CollaborationStatusSaved)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, f.target, saved[0].CollaboratorID)
	require.NotNil(t, saved[0].Profile)
	require.NotNil(t, saved[0].Profile.Email)
	assert.Equal(t, "mehmet@example.edu", *saved[0].Profile.Email)

	contacted, err := f.svc.List(ctx, f.requester, models.CollaborationStatusContacted)
	require.NoError(t, err)
	assert.Empty(t, contacted)

	_, err = f.svc.List(ctx, f.requester, "friended")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestRemoveCollaboration(t *testing.T) {
	f := newCollabFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, f.requester, &models.SetCollaborationStatusRequest{
		CollaboratorID: f.target,
		Status:         models.CollaborationStatusSaved,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, f.requester, f.target))
	list, err := f.svc.List(ctx, f.requester, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, f.svc.Remove(ctx, f.requester, f.target), pkg.ErrNotFound)
	assert.ErrorIs(t, f.svc.Remove(ctx, f.requester, ""), pkg.ErrBadRequest)
}
