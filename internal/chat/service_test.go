package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow/internal/db"
)

// fakeStore is an in-memory Store for service tests. Messages are held newest
// first, the order the storage layer returns pages in.
type fakeStore struct {
	participants map[int64][]int64
	messages     map[int64][]db.ChatMessage
	readBy       map[int64][]int64
}

func newChatStore() *fakeStore {
	return &fakeStore{
		participants: map[int64][]int64{},
		messages:     map[int64][]db.ChatMessage{},
		readBy:       map[int64][]int64{},
	}
}

func (f *fakeStore) CreateThread(_ context.Context, title, entityType string, entityID *int64, createdBy int64) (int64, error) {
	return 1, nil
}

func (f *fakeStore) GetThread(_ context.Context, id int64) (*db.ChatThread, error) {
	return &db.ChatThread{ID: id}, nil
}

func (f *fakeStore) GetThreadByEntity(_ context.Context, entityType string, entityID int64) (*db.ChatThread, error) {
	return nil, nil
}

func (f *fakeStore) AddParticipant(_ context.Context, threadID, userID int64, isAdmin bool) error {
	f.participants[threadID] = append(f.participants[threadID], userID)
	return nil
}

func (f *fakeStore) IsParticipant(_ context.Context, threadID, userID int64) (bool, error) {
	for _, id := range f.participants[threadID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListParticipantIDs(_ context.Context, threadID int64) ([]int64, error) {
	return f.participants[threadID], nil
}

func (f *fakeStore) ListThreadIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeStore) ListCoParticipantIDs(_ context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeStore) ListThreadsForUser(_ context.Context, userID int64, entityType string) ([]db.ThreadSummary, error) {
	return nil, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, message *db.ChatMessage) (*db.ChatMessage, error) {
	message.ID = int64(len(f.messages[message.ThreadID]) + 1)
	f.messages[message.ThreadID] = append([]db.ChatMessage{*message}, f.messages[message.ThreadID]...)
	return message, nil
}

func (f *fakeStore) GetMessage(_ context.Context, id int64) (*db.ChatMessage, error) {
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.ID == id {
				copied := m
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) ListMessages(_ context.Context, threadID int64, limit int, beforeID int64) ([]db.ChatMessage, error) {
	msgs := f.messages[threadID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]db.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeStore) MarkMessagesRead(_ context.Context, userID int64, messageIDs []int64) error {
	f.readBy[userID] = append(f.readBy[userID], messageIDs...)
	return nil
}

func (f *fakeStore) EditMessage(_ context.Context, id, senderID int64, content string) error {
	return nil
}

func (f *fakeStore) SoftDeleteMessage(_ context.Context, id, senderID int64) error {
	return nil
}

func (f *fakeStore) SearchMessages(_ context.Context, userID int64, query string, threadID int64, limit int) ([]db.ChatMessage, error) {
	return nil, nil
}

func (f *fakeStore) UpsertPresence(_ context.Context, userID int64, status string, socketID *string) error {
	return nil
}

func (f *fakeStore) SetTyping(_ context.Context, userID int64, isTyping bool, threadID *int64) error {
	return nil
}

func (f *fakeStore) GetPresence(_ context.Context, userID int64) (*db.UserPresence, error) {
	return nil, nil
}

func (f *fakeStore) MarkOfflineBySocket(_ context.Context, socketID string) (int64, error) {
	return 0, nil
}

type fakeDatabase struct {
	store *fakeStore
}

func (f fakeDatabase) Store() Store {
	return f.store
}

func (f fakeDatabase) WithTx(_ context.Context, fn func(Store) error) error {
	return fn(f.store)
}

type emitted struct {
	room   string
	userID int64
	event  string
}

type fakeEmitter struct {
	events []emitted
}

func (e *fakeEmitter) ToRoom(room, event string, data any) {
	e.events = append(e.events, emitted{room: room, event: event})
}

func (e *fakeEmitter) ToRoomExcept(room string, exceptUserID int64, event string, data any) {
	e.events = append(e.events, emitted{room: room, userID: exceptUserID, event: event})
}

func (e *fakeEmitter) ToUser(userID int64, event string, data any) {
	e.events = append(e.events, emitted{userID: userID, event: event})
}

func newChatService(store *fakeStore) (*Service, *fakeEmitter) {
	emitter := &fakeEmitter{}
	return &Service{db: fakeDatabase{store: store}, emitter: emitter}, emitter
}

func messageIDs(messages []db.ChatMessage) []int64 {
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}

func TestMessages_ReturnedOldestFirst(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9}
	store.messages[1] = []db.ChatMessage{
		{ID: 3, ThreadID: 1, SenderID: 7, Content: "third"},
		{ID: 2, ThreadID: 1, SenderID: 9, Content: "second"},
		{ID: 1, ThreadID: 1, SenderID: 7, Content: "first"},
	}
	svc, _ := newChatService(store)

	messages, err := svc.Messages(context.Background(), 9, 1, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, messageIDs(messages))
	assert.Equal(t, "first", messages[0].Content)
}

func TestMessages_PageIsNewestBeforeReversal(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9}
	store.messages[1] = []db.ChatMessage{
		{ID: 3, ThreadID: 1, SenderID: 7, Content: "third"},
		{ID: 2, ThreadID: 1, SenderID: 7, Content: "second"},
		{ID: 1, ThreadID: 1, SenderID: 7, Content: "first"},
	}
	svc, _ := newChatService(store)

	// limit 2 selects the two newest messages, then hands them back oldest first
	messages, err := svc.Messages(context.Background(), 9, 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, messageIDs(messages))
}

func TestMessages_MarksOnlyOthersLiveMessagesRead(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9}
	store.messages[1] = []db.ChatMessage{
		{ID: 3, ThreadID: 1, SenderID: 7, Content: "gone", IsDeleted: true},
		{ID: 2, ThreadID: 1, SenderID: 9, Content: "mine"},
		{ID: 1, ThreadID: 1, SenderID: 7, Content: "theirs"},
	}
	svc, _ := newChatService(store)

	_, err := svc.Messages(context.Background(), 9, 1, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, store.readBy[9])
}

func TestMessages_RedactsDeletedForOtherReaders(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9}
	store.messages[1] = []db.ChatMessage{
		{ID: 2, ThreadID: 1, SenderID: 7, Content: "retracted", IsDeleted: true},
		{ID: 1, ThreadID: 1, SenderID: 7, Content: "hello"},
	}
	svc, _ := newChatService(store)

	messages, err := svc.Messages(context.Background(), 9, 1, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, db.DeletedMessageText, messages[1].Content)
}

func TestMessages_RequiresParticipation(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7}
	svc, _ := newChatService(store)

	_, err := svc.Messages(context.Background(), 9, 1, 50, 0)
	var notMember *ErrNotParticipant
	assert.ErrorAs(t, err, &notMember)
}

func TestSend_FansOutAfterPersist(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9, 11}
	svc, emitter := newChatService(store)

	message, err := svc.Send(context.Background(), 7, SendInput{ThreadID: 1, Content: "hello"})
	require.NoError(t, err)
	require.Len(t, store.messages[1], 1)

	events := map[string]int{}
	for _, e := range emitter.events {
		events[e.event]++
	}
	assert.Equal(t, 1, events["message_sent"])
	assert.Equal(t, 1, events["new_message"])
	assert.Equal(t, 2, events["thread_updated"])
	assert.Equal(t, db.MessageText, message.Type)
}

func TestMarkRead_NotifiesThreadRoom(t *testing.T) {
	store := newChatStore()
	store.participants[1] = []int64{7, 9}
	svc, emitter := newChatService(store)

	err := svc.MarkRead(context.Background(), 9, 1, []int64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, store.readBy[9])
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "messages_read", emitter.events[0].event)
	assert.Equal(t, ThreadRoom(1), emitter.events[0].room)
}

func TestRedactDeleted_HidesContentFromOthers(t *testing.T) {
	msg := db.ChatMessage{
		ID:        1,
		SenderID:  7,
		Content:   "salary details",
		IsDeleted: true,
		Metadata:  db.JSONMap{"attachment": "doc.pdf"},
	}

	redactDeleted(&msg, 9)

	assert.Equal(t, db.DeletedMessageText, msg.Content)
	assert.Nil(t, msg.Metadata)
	assert.True(t, msg.IsDeleted)
}

func TestRedactDeleted_SenderKeepsOriginal(t *testing.T) {
	msg := db.ChatMessage{
		ID:        1,
		SenderID:  7,
		Content:   "salary details",
		IsDeleted: true,
		Metadata:  db.JSONMap{"attachment": "doc.pdf"},
	}

	redactDeleted(&msg, 7)

	assert.Equal(t, "salary details", msg.Content)
	assert.NotNil(t, msg.Metadata)
}

func TestRedactDeleted_LeavesLiveMessagesAlone(t *testing.T) {
	msg := db.ChatMessage{ID: 2, SenderID: 7, Content: "hello"}

	redactDeleted(&msg, 9)

	assert.Equal(t, "hello", msg.Content)
}
