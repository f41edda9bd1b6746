// Package kafka provides shared Kafka reader utilities.
package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// MaxPollWait is the maximum time the reader waits for new data.
	MaxPollWait = 1 * time.Second
	// CommitInterval is how often offsets are flushed to the broker.
	CommitInterval = 1 * time.Second
)

// ParseBrokers parses a comma-separated broker list and trims whitespace.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	return brokerList
}

// ParseTopics parses a comma-separated topic list, dropping empty entries.
func ParseTopics(topics string) []string {
	var result []string
	for _, t := range strings.Split(topics, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}

// ValidateConsumerParams validates common consumer parameters.
func ValidateConsumerParams(brokers string, topics []string, groupID string) error {
	if brokers == "" {
		return fmt.Errorf("brokers cannot be empty")
	}
	if len(topics) == 0 {
		return fmt.Errorf("topics cannot be empty")
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// NewGroupReaderConfig creates a consumer-group reader configuration that
// subscribes to several topics at once. Configured for at-least-once
// delivery: offsets are committed explicitly after processing.
func NewGroupReaderConfig(brokers []string, topics []string, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        brokers,
		GroupTopics:    topics,
		GroupID:        groupID,
		MinBytes:       1,    // Return immediately when any data is available
		MaxBytes:       10e6, // 10MB
		MaxWait:        MaxPollWait,
		CommitInterval: CommitInterval,
		StartOffset:    kafka.FirstOffset, // Start from beginning if no committed offset
	}
}
