package core

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"gwi.com/prompt-history/internal/store"
)

// HistoryStore is the part of the persistence adapter the chat service uses.
type HistoryStore interface {
	Insert(ctx context.Context, prompt, response string) (int64, error)
	ListAll(ctx context.Context) ([]store.ChatRecord, error)
	DeleteByID(ctx context.Context, id int64) error
}

type ChatService struct {
	completer Completer
	history   HistoryStore
}

func NewChatService(c Completer, h HistoryStore) *ChatService {
	return &ChatService{
		completer: c,
		history:   h,
	}
}

// ChatResult is the reply to a prompt and the id it was saved under.
type ChatResult struct {
	Reply string `json:"reply"`
	ID    int64  `json:"id"`
}

// Chat sends the prompt to the completion API and records the exchange.
// Nothing is stored when the completion fails.
func (s *ChatService) Chat(ctx context.Context, prompt string) (*ChatResult, error) {
	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, errors.WithMessage(err, "complete prompt")
	}

	id, err := s.history.Insert(ctx, prompt, reply)
	if err != nil {
		return nil, errors.WithMessage(err, "save chat record")
	}
	log.Ctx(ctx).Debug().Int64("id", id).Int("reply_len", len(reply)).Msg("chat record saved")

	return &ChatResult{Reply: reply, ID: id}, nil
}

func (s *ChatService) History(ctx context.Context) ([]store.ChatRecord, error) {
	return s.history.ListAll(ctx)
}

func (s *ChatService) DeleteHistory(ctx context.Context, id int64) error {
	return s.history.DeleteByID(ctx, id)
}
