package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/latch-protocol/latch-go/pkg/configstore"
	"github.com/latch-protocol/latch-go/pkg/device"
)

// Provisioner prompts the operator for each credential slot that is
// still empty.
type Provisioner struct{}

var _ device.Provisioner = Provisioner{}

// Provision prompts for missing slots. Passwords are read without echo.
func (Provisioner) Provision(ctx context.Context, store *configstore.Store) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "> "})
	if err != nil {
		return fmt.Errorf("creating readline: %w", err)
	}
	defer rl.Close()

	prompts := []struct {
		slot   configstore.Slot
		label  string
		secret bool
	}{
		{configstore.SlotEndpoint, "Broker endpoint (host:port)", false},
		{configstore.SlotUsername, "Username", false},
		{configstore.SlotPassword, "Password", true},
	}

	for _, p := range prompts {
		if err := ctx.Err(); err != nil {
			return err
		}

		existing, err := store.Read(p.slot)
		if err != nil {
			return err
		}
		if existing != "" {
			continue
		}

		value, err := prompt(rl, p.label, p.secret)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := store.Write(p.slot, value); err != nil {
			return err
		}
	}
	return nil
}

func prompt(rl *readline.Instance, label string, secret bool) (string, error) {
	if secret {
		data, err := rl.ReadPassword(label + ": ")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	rl.SetPrompt(label + ": ")
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
