package main

import (
	"context"

	"github.com/latch-protocol/latch-go/pkg/configstore"
	"github.com/latch-protocol/latch-go/pkg/device"
	"github.com/latch-protocol/latch-go/pkg/discovery"
)

// provisionerChain runs provisioners in order. Later entries only see
// slots the earlier ones left empty, so flags beat discovery and
// discovery beats the interactive prompt.
type provisionerChain []device.Provisioner

func (c provisionerChain) Provision(ctx context.Context, store *configstore.Store) error {
	for _, p := range c {
		complete, err := store.IsComplete()
		if err != nil {
			return err
		}
		if complete {
			return nil
		}
		if err := p.Provision(ctx, store); err != nil {
			return err
		}
	}
	return nil
}

// discoveryProvisioner fills the endpoint slot from mDNS browsing.
type discoveryProvisioner struct{}

func (discoveryProvisioner) Provision(ctx context.Context, store *configstore.Store) error {
	existing, err := store.Read(configstore.SlotEndpoint)
	if err != nil {
		return err
	}
	if existing != "" {
		return nil
	}

	browser := &discovery.Browser{}
	broker, err := browser.FindBroker(ctx, 0)
	if err != nil {
		return err
	}
	return store.Write(configstore.SlotEndpoint, broker.Endpoint())
}
