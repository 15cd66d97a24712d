package room

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/store"
)

func accountFor(i Identity) *models.Account {
	return &models.Account{ID: i.ID, Email: i.Email, Username: i.Username}
}

func TestAnswersMatch(t *testing.T) {
	cases := []struct {
		submitted, stored string
		want              bool
	}{
		{"Paris", "Paris", true},
		{"paris", "Paris", true},
		{" Paris ", "Paris", true},
		{"  pArIs", "Paris ", true},
		{"Lyon", "Paris", false},
		{"Par is", "Paris", false},
		{"", "Paris", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AnswersMatch(c.submitted, c.stored),
			"submitted=%q stored=%q", c.submitted, c.stored)
	}
}

// testRoom builds a room with a host, one extra member, and a one-card deck.
func testRoom(t *testing.T) (st *store.Memory, bus *feed.MemoryBus, r *models.Room, host, bob Identity, card *models.Flashcard) {
	t.Helper()
	ctx := context.Background()
	d, s, b := testDirectory()
	st, bus = s, b

	host = Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	bob = Identity{ID: uuid.New(), Email: "b@example.com", Username: "bob"}
	require.NoError(t, st.EnsureAccount(ctx, accountFor(bob)))

	var err error
	r, err = d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)
	require.NoError(t, st.InsertMembership(ctx, &models.Membership{RoomID: r.ID, UserID: bob.ID}))

	card = &models.Flashcard{Question: "Capital of France?", Answer: "Paris", Category: "geo"}
	require.NoError(t, st.InsertFlashcard(ctx, card))
	return st, bus, r, host, bob, card
}

func TestStartNewRoundNonHostIsNoop(t *testing.T) {
	ctx := context.Background()
	st, bus, r, _, bob, _ := testRoom(t)

	m := NewMachine(st, bus, testLogger(), r.ID, bob)
	require.NoError(t, m.StartNewRound(ctx), "non-host start is a no-op, not an error")

	got, err := st.GetRoom(ctx, r.ID)
	require.NoError(t, err)
	require.Nil(t, got.CurrentCardID, "current card unchanged")
}

func TestStartNewRoundEmptyDeck(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	m := NewMachine(st, bus, testLogger(), r.ID, host)
	require.ErrorIs(t, m.StartNewRound(ctx), ErrNoCards)
}

func TestStartNewRoundSetsCard(t *testing.T) {
	ctx := context.Background()
	st, bus, r, host, _, card := testRoom(t)

	m := NewMachine(st, bus, testLogger(), r.ID, host)
	require.NoError(t, m.StartNewRound(ctx))

	got, err := st.GetRoom(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentCardID)
	require.Equal(t, card.ID, *got.CurrentCardID)

	state, err := m.CurrentState(ctx)
	require.NoError(t, err)
	require.Equal(t, StateRoundActive, state)
}

func TestSubmitAnswerNoRoundOrEmptyInput(t *testing.T) {
	ctx := context.Background()
	st, bus, r, host, bob, _ := testRoom(t)

	m := NewMachine(st, bus, testLogger(), r.ID, bob)

	// No current card yet.
	fb, err := m.SubmitAnswer(ctx, "Paris")
	require.NoError(t, err)
	require.Nil(t, fb)

	hostM := NewMachine(st, bus, testLogger(), r.ID, host)
	require.NoError(t, hostM.StartNewRound(ctx))

	// Empty after trimming.
	fb, err = m.SubmitAnswer(ctx, "   ")
	require.NoError(t, err)
	require.Nil(t, fb)

	recs, err := st.ListMatchRecords(ctx, r.ID)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestSubmitAnswerIncorrect(t *testing.T) {
	ctx := context.Background()
	st, bus, r, host, bob, _ := testRoom(t)

	hostM := NewMachine(st, bus, testLogger(), r.ID, host)
	require.NoError(t, hostM.StartNewRound(ctx))

	m := NewMachine(st, bus, testLogger(), r.ID, bob)
	fb, err := m.SubmitAnswer(ctx, "Lyon")
	require.NoError(t, err)
	require.NotNil(t, fb)
	require.False(t, fb.Correct)
	require.Equal(t, "Paris", fb.Answer, "failure feedback reveals the answer")

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	for _, mem := range members {
		require.Zero(t, mem.Score)
	}
	recs, err := st.ListMatchRecords(ctx, r.ID)
	require.NoError(t, err)
	require.Empty(t, recs, "incorrect submission mutates nothing")
}

func TestSubmitAnswerCorrect(t *testing.T) {
	ctx := context.Background()
	st, bus, r, host, bob, card := testRoom(t)

	hostM := NewMachine(st, bus, testLogger(), r.ID, host)
	require.NoError(t, hostM.StartNewRound(ctx))

	m := NewMachine(st, bus, testLogger(), r.ID, bob)
	fb, err := m.SubmitAnswer(ctx, "  pArIs ")
	require.NoError(t, err)
	require.NotNil(t, fb)
	require.True(t, fb.Correct)
	require.Equal(t, 1, fb.Score)

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", members[0].Username)
	require.Equal(t, 1, members[0].Score, "score strictly incremented by 1")

	recs, err := st.ListMatchRecords(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1, "exactly one match record for the (room, card) pair")
	require.Equal(t, card.ID, recs[0].CardID)
	require.NotNil(t, recs[0].WinnerID)
	require.Equal(t, bob.ID, *recs[0].WinnerID)

	state, err := m.CurrentState(ctx)
	require.NoError(t, err)
	require.Equal(t, StateRoundResolved, state)
}

func TestHostCorrectSubmissionAutoAdvances(t *testing.T) {
	ctx := context.Background()
	st, bus, r, host, _, _ := testRoom(t)

	var roomUpdates atomic.Int32
	sub, err := bus.Subscribe(ctx, TableRooms,
		feed.Filter{Column: "id", Value: r.ID.String()}, feed.MaskUpdate,
		func(feed.Event) { roomUpdates.Add(1) })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	m := NewMachine(st, bus, testLogger(), r.ID, host)
	m.AdvanceDelay = 20 * time.Millisecond
	defer m.Stop()

	require.NoError(t, m.StartNewRound(ctx))
	require.Equal(t, int32(1), roomUpdates.Load())

	fb, err := m.SubmitAnswer(ctx, "Paris")
	require.NoError(t, err)
	require.True(t, fb.Correct)

	// The scheduled advance publishes a second room update.
	require.Eventually(t, func() bool { return roomUpdates.Load() >= 2 },
		time.Second, 5*time.Millisecond)

	got, err := st.GetRoom(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentCardID)
}

// TestGameScenario walks the full flow: host creates a room, starts a round,
// a second player joins and answers correctly, and the host advances.
func TestGameScenario(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()

	a := Identity{ID: uuid.New(), Email: "a@example.com", Username: "anna"}
	b := Identity{ID: uuid.New(), Email: "b@example.com", Username: "ben"}

	for _, c := range []models.Flashcard{
		{Question: "Capital of France?", Answer: "Paris", Category: "geo"},
		{Question: "2+2?", Answer: "4", Category: "math"},
	} {
		card := c
		require.NoError(t, st.InsertFlashcard(ctx, &card))
	}

	// A creates "Quiz1" and becomes host with a zero-score membership.
	r, err := d.CreateRoom(ctx, a, "Quiz1")
	require.NoError(t, err)
	require.Nil(t, r.CurrentCardID)

	hostSess, err := NewSession(ctx, st, bus, testLogger(), r.ID, a)
	require.NoError(t, err)
	defer hostSess.Close()
	require.True(t, hostSess.IsHost())

	hostM := NewMachine(st, bus, testLogger(), r.ID, a)
	require.NoError(t, hostM.StartNewRound(ctx))

	// B joins and sees the running round.
	benSess, err := NewSession(ctx, st, bus, testLogger(), r.ID, b)
	require.NoError(t, err)
	defer benSess.Close()
	require.False(t, benSess.IsHost())
	require.NoError(t, benSess.RefreshCurrentCard(ctx))
	current := benSess.CurrentCard()
	require.NotNil(t, current)

	// B answers correctly.
	benM := NewMachine(st, bus, testLogger(), r.ID, b)
	fb, err := benM.SubmitAnswer(ctx, " "+current.Answer+" ")
	require.NoError(t, err)
	require.True(t, fb.Correct)

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, members[0].UserID)
	require.Equal(t, 1, members[0].Score)

	recs, err := st.ListMatchRecords(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, current.ID, recs[0].CardID)
	require.Equal(t, b.ID, *recs[0].WinnerID)

	// Host moves the room on to the next card.
	require.NoError(t, hostM.StartNewRound(ctx))
	got, err := st.GetRoom(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentCardID)
}
