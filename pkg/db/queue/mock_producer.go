package queue

import (
	"github.com/IBM/sarama"
)

// mockProducer records produced messages in memory. Only the send and
// close paths matter to the sender tests; the transactional portion of
// sarama.SyncProducer is stubbed out.
type mockProducer struct {
	sent    []*sarama.ProducerMessage
	sendErr error
	closed  bool
}

func (p *mockProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if p.sendErr != nil {
		return 0, 0, p.sendErr
	}
	p.sent = append(p.sent, msg)
	return 0, int64(len(p.sent) - 1), nil
}

func (p *mockProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, msgs...)
	return nil
}

func (p *mockProducer) Close() error {
	p.closed = true
	return nil
}

func (p *mockProducer) TxnStatus() sarama.ProducerTxnStatusFlag { return 0 }

func (p *mockProducer) IsTransactional() bool { return false }

func (p *mockProducer) BeginTxn() error { return nil }

func (p *mockProducer) CommitTxn() error { return nil }

func (p *mockProducer) AbortTxn() error { return nil }

func (p *mockProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error {
	return nil
}

func (p *mockProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return nil
}
