package device

import (
	"context"
	"errors"

	"github.com/latch-protocol/latch-go/pkg/configstore"
)

// Provisioner fills missing credentials during Boot. Implementations
// range from a fixed-value StaticProvisioner to an interactive console
// prompting an installer.
type Provisioner interface {
	Provision(ctx context.Context, store *configstore.Store) error
}

// StaticProvisioner writes fixed credentials. Empty fields are skipped,
// so partial provisioning (say, only the endpoint) composes with values
// already in the store.
type StaticProvisioner struct {
	Endpoint string
	Username string
	Password string
}

var _ Provisioner = StaticProvisioner{}

// Provision writes every non-empty field to its slot.
func (p StaticProvisioner) Provision(_ context.Context, store *configstore.Store) error {
	pairs := []struct {
		slot  configstore.Slot
		value string
	}{
		{configstore.SlotEndpoint, p.Endpoint},
		{configstore.SlotUsername, p.Username},
		{configstore.SlotPassword, p.Password},
	}
	for _, pair := range pairs {
		if pair.value == "" {
			continue
		}
		if err := store.Write(pair.slot, pair.value); err != nil {
			return errors.Join(errProvisioning, err)
		}
	}
	return nil
}

var errProvisioning = errors.New("provisioning failed")
