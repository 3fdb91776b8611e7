package events

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

// KafkaPublisher writes every event to one topic, keyed by subject.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka producer ready")
	return newKafkaPublisher(producer, topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	log.Debug().
		Str("topic", k.topic).
		Str("key", subject).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event sent to Kafka")
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
