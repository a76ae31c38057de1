package clients

import (
	"context"
	"sync"
	"time"
)

// repoMock is an in-memory clients repo used in handler unit tests.
type repoMock struct {
	mutex   sync.RWMutex
	clients map[string]Client

	returnErr error
}

func newRepoMock(all ...Client) *repoMock {
	m := &repoMock{
		clients: make(map[string]Client),
	}
	for _, c := range all {
		m.clients[c.ID] = c
	}
	return m
}

func (m *repoMock) Add(_ context.Context, client Client) (*Client, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.clients[client.ID] = client
	return &client, nil
}

func (m *repoMock) Get(_ context.Context, id, coachID string) (*Client, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	c, ok := m.clients[id]
	if !ok || c.CoachID != coachID {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func (m *repoMock) List(_ context.Context, coachID string) ([]Client, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	clients := make([]Client, 0)
	for _, c := range m.clients {
		if c.CoachID == coachID {
			clients = append(clients, c)
		}
	}
	return clients, nil
}

func (m *repoMock) Update(_ context.Context, id, coachID string, update ClientUpdate) (*Client, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	c, ok := m.clients[id]
	if !ok || c.CoachID != coachID {
		return nil, ErrClientNotFound
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.Phone != nil {
		c.Phone = *update.Phone
	}
	if update.DateOfBirth != nil {
		c.DateOfBirth = update.DateOfBirth
	}
	if update.Notes != nil {
		c.Notes = *update.Notes
	}
	c.UpdatedAt = time.Now()
	m.clients[id] = c
	return &c, nil
}

func (m *repoMock) Delete(_ context.Context, id, coachID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	c, ok := m.clients[id]
	if !ok || c.CoachID != coachID {
		return ErrClientNotFound
	}
	delete(m.clients, id)
	return nil
}

// OwnedByCoach is used by other packages' handlers for ownership checks.
func (m *repoMock) OwnedByCoach(_ context.Context, id, coachID string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.returnErr != nil {
		return false, m.returnErr
	}
	c, ok := m.clients[id]
	return ok && c.CoachID == coachID, nil
}
