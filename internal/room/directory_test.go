package room

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testDirectory() (*Directory, *store.Memory, *feed.MemoryBus) {
	st := store.NewMemory()
	bus := feed.NewMemoryBus()
	return NewDirectory(st, bus, testLogger()), st, bus
}

func TestCreateRoomRejectsEmptyName(t *testing.T) {
	d, _, _ := testDirectory()
	acting := Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice"}

	_, err := d.CreateRoom(context.Background(), acting, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = d.CreateRoom(context.Background(), acting, "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateRoomAutoJoinsHost(t *testing.T) {
	ctx := context.Background()
	d, st, _ := testDirectory()
	acting := Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice"}

	r, err := d.CreateRoom(ctx, acting, "Quiz1")
	require.NoError(t, err)
	require.Equal(t, "Quiz1", r.Name)
	require.Equal(t, acting.ID, r.HostID)
	require.True(t, r.IsActive)
	require.Nil(t, r.CurrentCardID)

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, acting.ID, members[0].UserID)
	require.Equal(t, 0, members[0].Score)
	require.Equal(t, "alice", members[0].Username)
}

func TestCreateRoomLazilyCreatesProfile(t *testing.T) {
	ctx := context.Background()
	d, st, _ := testDirectory()
	acting := Identity{ID: uuid.New()} // no email or username claims

	r, err := d.CreateRoom(ctx, acting, "Quiz1")
	require.NoError(t, err)

	a, err := st.GetAccountByID(ctx, acting.ID)
	require.NoError(t, err)
	require.NotEmpty(t, a.Username)
	require.NotEmpty(t, a.Email)

	// Second create reuses the existing profile.
	_, err = d.CreateRoom(ctx, acting, "Quiz2")
	require.NoError(t, err)

	listings, err := d.ListActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	_ = r
}

func TestListActiveRoomsIncludesEmptyRooms(t *testing.T) {
	ctx := context.Background()
	d, st, _ := testDirectory()
	host := uuid.New()
	require.NoError(t, st.EnsureAccount(ctx, &models.Account{ID: host, Email: "h@example.com", Username: "host"}))

	// A room whose host join never happened: must still be listed, count 0.
	orphan := &models.Room{Name: "orphan", HostID: host}
	require.NoError(t, st.InsertRoom(ctx, orphan))

	listings, err := d.ListActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, 0, listings[0].Players)
	require.Equal(t, orphan.ID, listings[0].Room.ID)
}

func TestCloseRoom(t *testing.T) {
	ctx := context.Background()
	d, _, _ := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	other := Identity{ID: uuid.New(), Email: "o@example.com", Username: "other"}

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	// Non-host close is a silent no-op.
	require.NoError(t, d.CloseRoom(ctx, other, r.ID))
	listings, err := d.ListActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	require.NoError(t, d.CloseRoom(ctx, host, r.ID))
	listings, err = d.ListActiveRooms(ctx)
	require.NoError(t, err)
	require.Empty(t, listings)
}
