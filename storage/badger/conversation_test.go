package badger

import (
	"context"
	"testing"
	"time"

	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndGetRecentMessages(t *testing.T) {
	_, convRepo := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msgs := []*core.Message{
		{Role: core.RoleUser, Text: "what is a gateway timeout?", Timestamp: now},
		{Role: core.RoleAssistant, Text: "It is an upstream timeout.", Timestamp: now},
		{Role: core.RoleUser, Text: "tell me more", Timestamp: now},
	}
	require.NoError(t, convRepo.AppendMessages(ctx, "session-a", msgs...))

	t.Run("chronological order", func(t *testing.T) {
		got, err := convRepo.GetRecentMessages(ctx, "session-a", 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "what is a gateway timeout?", got[0].Text)
		assert.Equal(t, "tell me more", got[2].Text)
	})

	t.Run("limit keeps newest", func(t *testing.T) {
		got, err := convRepo.GetRecentMessages(ctx, "session-a", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "It is an upstream timeout.", got[0].Text)
		assert.Equal(t, "tell me more", got[1].Text)
	})

	t.Run("empty session id rejected", func(t *testing.T) {
		err := convRepo.AppendMessages(ctx, "", msgs[0])
		assert.ErrorIs(t, err, storage.ErrEmptySession)
	})
}

func TestLastAssistantMessage(t *testing.T) {
	_, convRepo := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("no history", func(t *testing.T) {
		_, err := convRepo.LastAssistantMessage(ctx, "fresh-session")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("user messages only", func(t *testing.T) {
		require.NoError(t, convRepo.AppendMessages(ctx, "user-only",
			&core.Message{Role: core.RoleUser, Text: "hello", Timestamp: now}))
		_, err := convRepo.LastAssistantMessage(ctx, "user-only")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("returns most recent assistant message", func(t *testing.T) {
		require.NoError(t, convRepo.AppendMessages(ctx, "session-b",
			&core.Message{Role: core.RoleUser, Text: "q1", Timestamp: now},
			&core.Message{Role: core.RoleAssistant, Text: "a1", Timestamp: now,
				Citations: []core.Citation{{Document: "d.pdf", Page: 2}}},
			&core.Message{Role: core.RoleUser, Text: "q2", Timestamp: now},
			&core.Message{Role: core.RoleAssistant, Text: "a2", Timestamp: now},
		))

		got, err := convRepo.LastAssistantMessage(ctx, "session-b")
		require.NoError(t, err)
		assert.Equal(t, "a2", got.Text)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		_, err := convRepo.LastAssistantMessage(ctx, "session-c")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSessionKeysAreUnambiguous(t *testing.T) {
	// "a" is a byte-prefix of "a:b"; the key encoding must still keep the
	// two sessions in disjoint scan ranges.
	_, convRepo := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, convRepo.AppendMessages(ctx, "a:b",
		&core.Message{Role: core.RoleUser, Text: "question for a:b", Timestamp: now},
		&core.Message{Role: core.RoleAssistant, Text: "answer for a:b", Timestamp: now},
	))

	t.Run("prefix session sees nothing", func(t *testing.T) {
		_, err := convRepo.LastAssistantMessage(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := convRepo.GetRecentMessages(ctx, "a", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("both sessions keep their own history", func(t *testing.T) {
		require.NoError(t, convRepo.AppendMessages(ctx, "a",
			&core.Message{Role: core.RoleAssistant, Text: "answer for a", Timestamp: now}))

		got, err := convRepo.LastAssistantMessage(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "answer for a", got.Text)

		got, err = convRepo.LastAssistantMessage(ctx, "a:b")
		require.NoError(t, err)
		assert.Equal(t, "answer for a:b", got.Text)

		msgs, err := convRepo.GetRecentMessages(ctx, "a", 10)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})
}
