// Package shutdown coordinates graceful teardown of bot components.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Component interface {
	Shutdown(ctx context.Context) error
	Name() string
}

type Manager struct {
	log        logrus.FieldLogger
	mu         sync.Mutex
	components []Component
}

func NewManager(log logrus.FieldLogger) *Manager {
	return &Manager{
		log: log.WithField("component", "shutdown"),
	}
}

func (m *Manager) Register(component Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component)
	m.log.WithField("name", component.Name()).Debug("Registered shutdown component")
}

// Shutdown stops components in reverse registration order, so consumers
// go down before the things they depend on.
func (m *Manager) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]Component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	var firstErr error
	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]
		m.log.WithField("name", component.Name()).Info("Shutting down component")

		if err := component.Shutdown(ctx); err != nil {
			m.log.WithError(err).WithField("name", component.Name()).Error("Component shutdown failed")
			if firstErr == nil {
				firstErr = err
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return firstErr
}
