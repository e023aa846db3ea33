// Package interactive provides the interactive console and the
// credential prompt for latch-device.
package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/latch-protocol/latch-go/pkg/actuator"
	"github.com/latch-protocol/latch-go/pkg/device"
)

// Console handles interactive mode for latch-device.
type Console struct {
	svc   *device.Service
	latch *actuator.Simulated
	rl    *readline.Instance
}

// New creates the console and registers its event handler on the
// service. Call before the service starts polling.
func New(svc *device.Service, latch *actuator.Simulated) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "latch> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("creating readline: %w", err)
	}

	c := &Console{svc: svc, latch: latch, rl: rl}
	svc.OnEvent(c.handleEvent)
	return c, nil
}

// Run reads commands until ctx is canceled or the user exits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "help", "?":
			c.printHelp()

		case "status", "s":
			c.cmdStatus()

		case "history", "h":
			c.cmdHistory()

		case "creds":
			c.cmdCreds()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", input)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Latch Device Commands:
  status    - Show service state and bolt position
  history   - Show executed commands
  creds     - Show broker endpoint and username
  help      - Show this help
  quit      - Exit`)
}

func (c *Console) cmdStatus() {
	fmt.Fprintf(c.rl.Stdout(), "Service: %s\n", c.svc.State())
	if c.latch.Locked() {
		fmt.Fprintln(c.rl.Stdout(), "Bolt:    LOCKED")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Bolt:    UNLOCKED")
	}
}

func (c *Console) cmdHistory() {
	history := c.latch.History()
	if len(history) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No commands executed yet")
		return
	}
	for i, cmd := range history {
		fmt.Fprintf(c.rl.Stdout(), "%3d  %s\n", i+1, cmd)
	}
}

func (c *Console) cmdCreds() {
	creds := c.svc.Credentials()
	fmt.Fprintf(c.rl.Stdout(), "Endpoint: %s\n", creds.Endpoint)
	fmt.Fprintf(c.rl.Stdout(), "Username: %s\n", creds.Username)
}

// handleEvent prints service events above the prompt.
func (c *Console) handleEvent(ev device.Event) {
	switch ev.Type {
	case device.EventChallengeIssued:
		fmt.Fprintf(c.rl.Stdout(), "Challenge issued for user %d\n", ev.User)
	case device.EventCommandExecuted:
		fmt.Fprintf(c.rl.Stdout(), "Executed %s for user %d\n", ev.Command, ev.User)
	case device.EventCommandRejected:
		fmt.Fprintf(c.rl.Stdout(), "Rejected response from user %d: %v\n", ev.User, ev.Err)
	case device.EventChallengeExpired:
		fmt.Fprintln(c.rl.Stdout(), "Challenge expired")
	}
}
