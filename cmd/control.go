// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

var pollIntervalMS int

// maxPollBackoff caps the poll delay for a silent unit
const maxPollBackoff = 30 * time.Second

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling units",
	Long: `Control Vento units via an interactive terminal UI.

Features:
  - Device discovery (SEARCH broadcast, plus units with an IP in the config)
  - Periodic status polling of every unit
  - Power, speed preset, manual speed and ventilation mode control
  - Statistics tracking
  - Event logging
  - Exponential poll backoff for units that stop answering

The TUI discovers units first before enabling control. Tab switches between
the device list, the manual speed input and the power button. Arrow keys
navigate the device list.

Keys (outside the speed input):
  p        toggle power
  1 2 3    speed low, medium, high
  m        cycle ventilation mode
  r        rediscover units`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().IntVar(&pollIntervalMS, "poll", 2000, "Status poll interval in milliseconds")
}

// pollTarget is a unit the poller reads status from
type pollTarget struct {
	target
	failures int
	next     time.Time
	inFlight bool
}

// unitPoller owns the transport side of the control TUI: discovery, status
// polling and commands. Poll results reach the program through send.
type unitPoller struct {
	client   *ventonet.Client
	interval time.Duration
	ctx      context.Context
	send     func(tea.Msg)

	mu      sync.Mutex
	targets []*pollTarget
	wake    chan struct{}
}

func newUnitPoller(ctx context.Context, interval time.Duration) *unitPoller {
	return &unitPoller{
		interval: interval,
		ctx:      ctx,
		wake:     make(chan struct{}, 1),
	}
}

// setTargets replaces the polled units and polls them right away
func (u *unitPoller) setTargets(ts []target) {
	u.mu.Lock()
	u.targets = make([]*pollTarget, len(ts))
	for i, t := range ts {
		u.targets[i] = &pollTarget{target: t}
	}
	u.mu.Unlock()

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// due returns the targets whose next poll time has passed and marks them in
// flight. A target is not handed out again until its poll finishes.
func (u *unitPoller) due(now time.Time) []*pollTarget {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*pollTarget
	for _, t := range u.targets {
		if !t.inFlight && !now.Before(t.next) {
			t.inFlight = true
			out = append(out, t)
		}
	}
	return out
}

// pollBackoff is the delay before the next poll after failures consecutive
// silent polls
func pollBackoff(interval time.Duration, failures int) time.Duration {
	delay := interval
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= maxPollBackoff {
			return maxPollBackoff
		}
	}
	return delay
}

// run polls due targets until the context ends. Each poll runs on its own
// goroutine so a silent unit does not hold up the others.
func (u *unitPoller) run() {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-u.ctx.Done():
			return
		case <-ticker.C:
		case <-u.wake:
		}

		for _, t := range u.due(time.Now()) {
			t := t
			wg.Add(1)
			go func() {
				defer wg.Done()
				u.poll(t)
			}()
		}
	}
}

func (u *unitPoller) poll(t *pollTarget) {
	defer func() {
		u.mu.Lock()
		t.inFlight = false
		u.mu.Unlock()
	}()

	start := time.Now()
	resp, err := u.client.Send(u.ctx, vento.NewStatusRequest(t.ID, t.Password), t.IP)
	if err != nil {
		if u.ctx.Err() == nil {
			u.send(commandResultMsg{id: t.ID, label: "status", err: err})
		}
		return
	}

	u.mu.Lock()
	if resp == nil {
		t.failures++
		delay := pollBackoff(u.interval, t.failures)
		t.next = time.Now().Add(delay)
		failures := t.failures
		u.mu.Unlock()
		u.send(unitSilentMsg{id: t.ID, failures: failures, retry: delay})
		return
	}
	t.failures = 0
	t.next = time.Now().Add(u.interval)
	u.mu.Unlock()

	u.send(controlStatusMsg{
		id:     t.ID,
		ip:     resp.From.IP.String(),
		status: vento.StatusFromPacket(resp.Packet),
		rtt:    time.Since(start),
	})
}

// discover runs one discovery round
func (u *unitPoller) discover() tea.Cmd {
	return func() tea.Msg {
		devices, err := u.client.FindDevices(u.ctx)
		return discoveryResultMsg{devices: ventonet.Dedupe(devices), err: err}
	}
}

// command sends a control packet and reports the state the unit returns
func (u *unitPoller) command(t target, label string, p *vento.Packet) tea.Cmd {
	return func() tea.Msg {
		resp, err := u.client.Send(u.ctx, p, t.IP)
		if err != nil {
			return commandResultMsg{id: t.ID, label: label, err: err}
		}
		if resp == nil {
			return commandResultMsg{id: t.ID, label: label, err: errTimeout}
		}
		status := vento.StatusFromPacket(resp.Packet)
		return commandResultMsg{id: t.ID, label: label, status: &status}
	}
}

// datagramBatcher forwards received datagrams to the program every 50ms
type datagramBatcher struct {
	in chan controlDataMsg
}

func newDatagramBatcher() *datagramBatcher {
	return &datagramBatcher{in: make(chan controlDataMsg, 100)}
}

// trace is installed on the client; it decodes inbound datagrams
func (b *datagramBatcher) trace(dir vento.Direction, peer *net.UDPAddr, data []byte) {
	if dir != vento.DirectionIn {
		return
	}
	msg := controlDataMsg{}
	msg.packet, msg.decodeErr = vento.Decode(data)
	if msg.decodeErr == nil {
		msg.validationErrors = vento.ValidatePacket(msg.packet)
	}
	select {
	case b.in <- msg:
	default:
	}
}

func (b *datagramBatcher) run(ctx context.Context, p *tea.Program) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var batch controlBatchMsg

			// Drain all available messages from batch channel
		drainLoop:
			for {
				select {
				case msg := <-b.in:
					batch.messages = append(batch.messages, msg)
				default:
					break drainLoop
				}
			}

			if len(batch.messages) > 0 {
				p.Send(batch)
			}
		}
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	if pollIntervalMS < 100 {
		return fmt.Errorf("invalid --poll %d (minimum 100)", pollIntervalMS)
	}
	fallback, err := devicePassword("")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	batcher := newDatagramBatcher()
	poller := newUnitPoller(ctx, time.Duration(pollIntervalMS)*time.Millisecond)
	poller.client = newClient(batcher.trace)

	m := initialControlModel(poller, fallback)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	poller.send = p.Send

	go poller.run()
	go batcher.run(ctx, p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
