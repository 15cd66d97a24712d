package room

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quizdeck/internal/feed"
)

func TestSessionUnknownRoom(t *testing.T) {
	_, st, bus := testDirectory()
	acting := Identity{ID: uuid.New(), Email: "b@example.com", Username: "bob"}

	_, err := NewSession(context.Background(), st, bus, testLogger(), uuid.New(), acting)
	require.Error(t, err)
}

func TestJoinTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	bob := Identity{ID: uuid.New(), Email: "b@example.com", Username: "bob"}
	require.NoError(t, st.EnsureAccount(ctx, accountFor(bob)))

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	s1, err := NewSession(ctx, st, bus, testLogger(), r.ID, bob)
	require.NoError(t, err)
	defer s1.Close()

	s2, err := NewSession(ctx, st, bus, testLogger(), r.ID, bob)
	require.NoError(t, err, "second join must not surface the duplicate-key error")
	defer s2.Close()

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, members, 2, "host plus exactly one bob row")
}

func TestMembersOrderedByScore(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	bob := Identity{ID: uuid.New(), Email: "b@example.com", Username: "bob"}
	require.NoError(t, st.EnsureAccount(ctx, accountFor(bob)))

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	sess, err := NewSession(ctx, st, bus, testLogger(), r.ID, bob)
	require.NoError(t, err)
	defer sess.Close()

	_, err = st.IncrementScore(ctx, r.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, sess.RefreshMembers(ctx))

	members := sess.Members()
	require.Len(t, members, 2)
	require.Equal(t, "bob", members[0].Username)
	require.Equal(t, 1, members[0].Score)
	require.Equal(t, "host", members[1].Username)
}

func TestSessionRefetchesOnFeedEvent(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	sess, err := NewSession(ctx, st, bus, testLogger(), r.ID, host)
	require.NoError(t, err)
	defer sess.Close()

	var changes atomic.Int32
	sess.SetOnChange(func() { changes.Add(1) })

	// Another writer bumps the score and announces it.
	_, err = st.IncrementScore(ctx, r.ID, host.ID)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, feed.Event{
		Table: TableMemberships,
		Kind:  feed.KindUpdate,
		Row:   map[string]string{"room_id": r.ID.String(), "user_id": host.ID.String()},
	}))

	require.Eventually(t, func() bool {
		m := sess.Members()
		return len(m) == 1 && m[0].Score == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return changes.Load() >= 1 }, time.Second, 5*time.Millisecond)

	// An event for a different room must not trigger this session.
	before := changes.Load()
	require.NoError(t, bus.Publish(ctx, feed.Event{
		Table: TableMemberships,
		Kind:  feed.KindInsert,
		Row:   map[string]string{"room_id": uuid.NewString(), "user_id": uuid.NewString()},
	}))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, changes.Load())
}

func TestLeaveRemovesOnlyCaller(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}
	bob := Identity{ID: uuid.New(), Email: "b@example.com", Username: "bob"}
	require.NoError(t, st.EnsureAccount(ctx, accountFor(bob)))

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	sess, err := NewSession(ctx, st, bus, testLogger(), r.ID, bob)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Leave(ctx))

	members, err := st.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, host.ID, members[0].UserID, "host membership untouched")
}

func TestCloseStopsNotifications(t *testing.T) {
	ctx := context.Background()
	d, st, bus := testDirectory()
	host := Identity{ID: uuid.New(), Email: "h@example.com", Username: "host"}

	r, err := d.CreateRoom(ctx, host, "Quiz1")
	require.NoError(t, err)

	sess, err := NewSession(ctx, st, bus, testLogger(), r.ID, host)
	require.NoError(t, err)

	var changes atomic.Int32
	sess.SetOnChange(func() { changes.Add(1) })

	sess.Close()
	sess.Close() // idempotent

	require.NoError(t, bus.Publish(ctx, feed.Event{
		Table: TableMemberships,
		Kind:  feed.KindUpdate,
		Row:   map[string]string{"room_id": r.ID.String()},
	}))
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, changes.Load())
	_ = st
}
