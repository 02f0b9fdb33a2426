package kafka

import (
	"context"
	"fmt"

	"photobooth/internal/broker"
	"photobooth/internal/config"
	"photobooth/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ProducerClient struct {
	producer *wbkafka.Producer
	strategy retry.Strategy
}

func NewProducerClient(cfg config.KafkaConfig, strategy retry.Strategy) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Brokers, cfg.Topic),
		strategy: strategy,
	}
}

func (p *ProducerClient) Send(ctx context.Context, key, value []byte) error {
	return p.producer.SendWithRetry(ctx, p.strategy, key, value)
}

func (p *ProducerClient) Publish(ctx context.Context, event domain.PhotoEvent) error {
	key, value, err := broker.EncodePhotoEvent(event)
	if err != nil {
		return err
	}
	if err := p.Send(ctx, key, value); err != nil {
		return fmt.Errorf("failed to send photo event: %w", err)
	}
	return nil
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
