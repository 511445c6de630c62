package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
// Messages live under session-prefixed keys, so distinct sessions can never
// observe each other's history.
type ConversationRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
//
// Returns storage.ConversationRepository interface to enforce abstraction.
func NewConversationRepository(backend *Backend) (storage.ConversationRepository, error) {
	return newConversationRepository(backend)
}

// newConversationRepository is an internal constructor that returns the concrete type.
func newConversationRepository(backend *Backend) (*ConversationRepository, error) {
	if backend == nil {
		return nil, storage.ErrInvalidQuery
	}

	seq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the message sequence.
func (r *ConversationRepository) Close() error {
	return r.seq.Release()
}

// AppendMessages appends messages to a session's conversation in order.
func (r *ConversationRepository) AppendMessages(ctx context.Context, session string, messages ...*core.Message) error {
	if session == "" {
		return storage.ErrEmptySession
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, msg := range messages {
			if err := core.ValidateMessage(msg); err != nil {
				return err
			}
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now().UTC()
			}

			seq, err := r.seq.Next()
			if err != nil {
				return err
			}

			key := makeMessageKey(session, seq)
			if err := tx.Set(key, storage.MarshalMessage(msg)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecentMessages retrieves up to limit most recent messages, oldest first.
func (r *ConversationRepository) GetRecentMessages(ctx context.Context, session string, limit int) ([]*core.Message, error) {
	if session == "" {
		return nil, storage.ErrEmptySession
	}

	var messages []*core.Message

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.scanSessionReverse(tx, session, func(msg *core.Message) bool {
			messages = append(messages, msg)
			return limit <= 0 || len(messages) < limit
		})
	}, false)

	if err != nil {
		return nil, err
	}

	// Reverse scan collected newest first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LastAssistantMessage retrieves the most recent assistant message of a session.
func (r *ConversationRepository) LastAssistantMessage(ctx context.Context, session string) (*core.Message, error) {
	if session == "" {
		return nil, storage.ErrEmptySession
	}

	var last *core.Message

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.scanSessionReverse(tx, session, func(msg *core.Message) bool {
			if msg.Role == core.RoleAssistant {
				last = msg
				return false
			}
			return true
		})
	}, false)

	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, storage.ErrNotFound
	}
	return last, nil
}

// scanSessionReverse iterates a session's messages newest first, calling fn
// for each until fn returns false or the prefix is exhausted.
func (r *ConversationRepository) scanSessionReverse(tx *badger.Txn, session string, fn func(*core.Message) bool) error {
	prefix := makePartialMessageKey(session)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = true
	iter := tx.NewIterator(opts)
	defer iter.Close()

	// In reverse mode iteration must be seeded past the last key of the
	// prefix range.
	seek := make([]byte, len(prefix))
	copy(seek, prefix)
	seek = append(seek, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

	for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
		var msg *core.Message
		err := iter.Item().Value(func(val []byte) error {
			var err error
			msg, err = storage.UnmarshalMessage(val)
			return err
		})
		if err != nil {
			return err
		}
		if !fn(msg) {
			return nil
		}
	}
	return nil
}
