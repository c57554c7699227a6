package app

import (
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

// QueuedPlayer is a player waiting for an opponent in one subject's queue.
type QueuedPlayer struct {
	LogicalID  string
	ConnID     string
	UserID     string
	Username   string
	Subject    domain.Subject
	Rating     int
	EnqueuedAt time.Time
}

// QueueManager holds waiting players partitioned by subject. All operations
// are total; there are no error conditions.
type QueueManager struct {
	mu     sync.Mutex
	queues map[domain.Subject][]QueuedPlayer
}

func NewQueueManager() *QueueManager {
	return &QueueManager{queues: make(map[domain.Subject][]QueuedPlayer)}
}

// Enqueue adds a player to their subject's queue and returns the queue length.
// A player already queued for the subject (same user id) is replaced in place,
// which covers reconnect-while-queued.
func (m *QueueManager) Enqueue(p QueuedPlayer) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.queues[p.Subject]
	for i := range queue {
		if queue[i].UserID == p.UserID {
			// Keep the original enqueue time so the replacement does not
			// lose its tie-break seniority.
			p.EnqueuedAt = queue[i].EnqueuedAt
			queue[i] = p
			return len(queue)
		}
	}
	m.queues[p.Subject] = append(queue, p)
	return len(m.queues[p.Subject])
}

// DequeueBestPair removes and returns the queued pair with the smallest rating
// difference for a subject, or false if fewer than two players wait. Among
// equal differences the earliest-enqueued pair wins.
func (m *QueueManager) DequeueBestPair(subject domain.Subject) (QueuedPlayer, QueuedPlayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.queues[subject]
	if len(queue) < 2 {
		return QueuedPlayer{}, QueuedPlayer{}, false
	}

	bestI, bestJ := -1, -1
	bestDiff := 0
	var bestOldest time.Time
	for i := 0; i < len(queue)-1; i++ {
		for j := i + 1; j < len(queue); j++ {
			diff := queue[i].Rating - queue[j].Rating
			if diff < 0 {
				diff = -diff
			}
			oldest := queue[i].EnqueuedAt
			if queue[j].EnqueuedAt.Before(oldest) {
				oldest = queue[j].EnqueuedAt
			}
			if bestI == -1 || diff < bestDiff || (diff == bestDiff && oldest.Before(bestOldest)) {
				bestI, bestJ, bestDiff, bestOldest = i, j, diff, oldest
			}
		}
	}

	first, second := queue[bestI], queue[bestJ]
	remaining := make([]QueuedPlayer, 0, len(queue)-2)
	for k, p := range queue {
		if k != bestI && k != bestJ {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		delete(m.queues, subject)
	} else {
		m.queues[subject] = remaining
	}
	return first, second, true
}

// Remove drops a player from whichever subject queue holds their connection.
// No-op if the connection is not queued.
func (m *QueueManager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for subject, queue := range m.queues {
		for i := range queue {
			if queue[i].ConnID == connID {
				queue = append(queue[:i], queue[i+1:]...)
				if len(queue) == 0 {
					delete(m.queues, subject)
				} else {
					m.queues[subject] = queue
				}
				return
			}
		}
	}
}

// Len reports the number of players waiting for a subject.
func (m *QueueManager) Len(subject domain.Subject) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[subject])
}
