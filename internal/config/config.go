// Package config provides configuration parsing and validation for the
// notification service.
package config

import (
	"fmt"

	"notification-service/pkg/kafka"
)

// Config holds all configuration parameters for the notification service.
type Config struct {
	KafkaBrokers    string
	EventTopics     string
	ConsumerGroupID string
	PostgresDSN     string
	RedisAddr       string
	TokenURL        string
	DirectoryURL    string
	ClientID        string
	ClientSecret    string
	HTTPPort        string
}

// Topics returns the parsed event topic list.
func (c *Config) Topics() []string {
	return kafka.ParseTopics(c.EventTopics)
}

// Validate checks that all required configuration fields are set and have
// valid values. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if len(c.Topics()) == 0 {
		return fmt.Errorf("event-topics cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("token-url cannot be empty")
	}
	if c.DirectoryURL == "" {
		return fmt.Errorf("directory-url cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client-id cannot be empty")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client-secret cannot be empty")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	return nil
}
