package connectivity

import "sync"

// Monitor carries the device's online/offline signal. The app shell reports
// transitions via Set; subscribers receive each change, most importantly the
// offline-to-online edge that triggers a sync cycle.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the connectivity state and notifies subscribers on change.
// Notification never blocks; a subscriber that has not drained its channel
// only sees the latest state, which is all sync triggering needs.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	for _, sub := range m.subs {
		select {
		case sub <- online:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- online
		}
	}
}

func (m *Monitor) Subscribe() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := make(chan bool, 1)
	m.subs = append(m.subs, sub)
	return sub
}
