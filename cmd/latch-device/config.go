package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/latch-protocol/latch-go/pkg/device"
)

// ConfigFile is the YAML configuration schema.
//
//	store: /var/lib/latch/store.bin
//	expiry: 30s
//	topics:
//	  commands: garage/commands
//	  validation_requests: garage/validation/requests
//	  validation_responses: garage/validation/responses
type ConfigFile struct {
	Store  string        `yaml:"store"`
	Expiry time.Duration `yaml:"expiry"`
	Topics struct {
		Commands            string `yaml:"commands"`
		ValidationRequests  string `yaml:"validation_requests"`
		ValidationResponses string `yaml:"validation_responses"`
	} `yaml:"topics"`
}

// LoadConfigFile reads and parses a YAML configuration file.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cf, nil
}

// apply overlays the file values onto config. Unset file values keep
// the existing setting.
func (cf *ConfigFile) apply(config device.Config) device.Config {
	if cf.Store != "" {
		config.StorePath = cf.Store
	}
	if cf.Expiry > 0 {
		config.ChallengeExpiry = cf.Expiry
	}
	if cf.Topics.Commands != "" {
		config.Topics.Commands = cf.Topics.Commands
	}
	if cf.Topics.ValidationRequests != "" {
		config.Topics.ValidationRequests = cf.Topics.ValidationRequests
	}
	if cf.Topics.ValidationResponses != "" {
		config.Topics.ValidationResponses = cf.Topics.ValidationResponses
	}
	return config
}
