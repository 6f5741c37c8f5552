//go:build integration
// +build integration

package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/testutil"
)

func TestStore_CreateAndGet_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	ownerID := uuid.New()
	clientID := uuid.New()

	created, err := store.Create(ctx, clientID, ownerID, "Password reset")
	require.NoError(t, err)
	assert.Equal(t, clientID, created.ID, "client-minted ID should be preserved")
	assert.Equal(t, ownerID, created.OwnerID)
	assert.Equal(t, "Password reset", created.Title)
	assert.NotZero(t, created.CreatedAt)

	got, err := store.Get(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestStore_Create_MintsIDWhenNil_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())

	created, err := store.Create(context.Background(), uuid.Nil, uuid.New(), "Untitled")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestStore_Get_NotFound_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListByOwner_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	ownerID := uuid.New()
	for i := range 3 {
		_, err := store.Create(ctx, uuid.New(), ownerID, fmt.Sprintf("Conversation %d", i))
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, uuid.New(), uuid.New(), "Someone else's")
	require.NoError(t, err)

	convs, err := store.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, convs, 3, "listing must be scoped to the owner")
	for _, c := range convs {
		assert.Equal(t, ownerID, c.OwnerID)
	}
}

func TestStore_AddMessages_Sequencing_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.Create(ctx, uuid.New(), uuid.New(), "Sequenced")
	require.NoError(t, err)

	first := []*Message{
		{ID: uuid.New(), Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart("hello")}},
		{ID: uuid.New(), Role: ai.RoleModel, Content: []*ai.Part{ai.NewTextPart("hi there")}},
	}
	require.NoError(t, store.AddMessages(ctx, conv.ID, first))

	second := []*Message{
		{ID: uuid.New(), Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart("more")}},
	}
	require.NoError(t, store.AddMessages(ctx, conv.ID, second))

	msgs, err := store.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.SequenceNumber, "sequence numbers must be dense and ordered")
	}
	assert.Equal(t, ai.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content[0].Text)
}

func TestStore_AddMessages_ToolTrafficRoundTrip_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.Create(ctx, uuid.New(), uuid.New(), "Tools")
	require.NoError(t, err)

	msgs := []*Message{
		{ID: uuid.New(), Role: ai.RoleModel, Content: []*ai.Part{
			ai.NewToolRequestPart(&ai.ToolRequest{Name: "getWeather", Input: map[string]any{"latitude": 52.52}}),
		}},
		{ID: uuid.New(), Role: ai.RoleTool, Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{Name: "getWeather", Output: map[string]any{"status": "success"}}),
		}},
	}
	require.NoError(t, store.AddMessages(ctx, conv.ID, msgs))

	stored, err := store.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	require.True(t, stored[0].Content[0].IsToolRequest())
	assert.Equal(t, "getWeather", stored[0].Content[0].ToolRequest.Name)
	require.True(t, stored[1].Content[0].IsToolResponse())
	assert.Equal(t, "getWeather", stored[1].Content[0].ToolResponse.Name)
}

func TestStore_AddMessages_MissingConversation_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())

	err := store.AddMessages(context.Background(), uuid.New(), []*Message{
		{ID: uuid.New(), Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart("orphan")}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddMessages_ConcurrentAppends_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.Create(ctx, uuid.New(), uuid.New(), "Concurrent")
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.AddMessages(ctx, conv.ID, []*Message{
				{ID: uuid.New(), Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart(fmt.Sprintf("msg %d", n))}},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := store.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, writers)

	seen := make(map[int64]bool)
	for _, m := range msgs {
		assert.False(t, seen[m.SequenceNumber], "sequence number %d assigned twice", m.SequenceNumber)
		seen[m.SequenceNumber] = true
	}
}

func TestStore_Delete_Cascades_Integration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := NewStore(db.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.Create(ctx, uuid.New(), uuid.New(), "Doomed")
	require.NoError(t, err)
	require.NoError(t, store.AddMessages(ctx, conv.ID, []*Message{
		{ID: uuid.New(), Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart("bye")}},
	}))

	require.NoError(t, store.Delete(ctx, conv.ID))

	_, err = store.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	err = db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM messages WHERE conversation_id = $1", conv.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "messages must be deleted with their conversation")

	assert.ErrorIs(t, store.Delete(ctx, conv.ID), ErrNotFound)
}
