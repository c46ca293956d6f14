package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/usecase"
)

var _ usecase.EventPublisher = (*SignalService)(nil)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event any) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

func (s *SignalService) PublishMint(ctx context.Context, event craftnft.MintEvent) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.PublishMint")
	defer span.End()

	err := s.Publish(ctx, domain.MintChannel, event)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Realtime forwards mint events to output until ctx is done.
func (s *SignalService) Realtime(ctx context.Context, output chan<- craftnft.MintEvent) {
	pubsub := s.rdb.Subscribe(ctx, domain.MintChannel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event craftnft.MintEvent
			err := json.Unmarshal([]byte(msg.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode mint event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
