// Package systemd reports capture progress to the service manager when
// camcap runs as a Type=notify unit.
package systemd

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/camcap/internal/events"
)

// Notifier subscribes to session and device events and forwards them as sd_notify
// messages. Outside systemd every notification is a no-op.
type Notifier struct {
	eventBus     *events.Bus
	logger       *slog.Logger
	notify       func(state string) (bool, error)
	unsubscribes []func()
	mu           sync.Mutex
}

// NewNotifier creates a notifier for the session events on eventBus.
func NewNotifier(eventBus *events.Bus, logger *slog.Logger) *Notifier {
	return &Notifier{
		eventBus: eventBus,
		logger:   logger,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

// Start begins listening for session events.
func (n *Notifier) Start() {
	n.unsubscribes = append(n.unsubscribes,
		n.eventBus.Subscribe(func(e events.SessionStateChangedEvent) {
			n.handleState(e)
		}),
		n.eventBus.Subscribe(func(e events.FrameCapturedEvent) {
			n.handleFrame(e)
		}),
		n.eventBus.Subscribe(func(e events.CaptureErrorEvent) {
			n.send(fmt.Sprintf("STATUS=Capture failed: %s", e.Error))
		}),
		n.eventBus.Subscribe(func(e events.DeviceDiscoveryEvent) {
			if e.Action == "added" {
				n.send("STATUS=Device " + e.DevicePath + " appeared")
			}
		}),
	)
}

// Stop unsubscribes from the bus.
func (n *Notifier) Stop() {
	for _, unsubscribe := range n.unsubscribes {
		unsubscribe()
	}
	n.unsubscribes = nil
}

func (n *Notifier) handleState(e events.SessionStateChangedEvent) {
	switch e.To {
	case "streaming":
		n.send(daemon.SdNotifyReady + "\nSTATUS=Streaming from " + e.DevicePath)
	case "stopped":
		n.send(daemon.SdNotifyStopping)
	}
}

// handleFrame pets the watchdog so a stalled device trips WatchdogSec.
func (n *Notifier) handleFrame(e events.FrameCapturedEvent) {
	n.send(fmt.Sprintf("%s\nSTATUS=Written frame %d", daemon.SdNotifyWatchdog, e.Sequence))
}

func (n *Notifier) send(state string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "error", err)
		return
	}
	if sent {
		n.logger.Debug("Notified systemd", "state", state)
	}
}
