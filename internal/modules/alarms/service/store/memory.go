package store

import (
	"context"
	"sort"
	"sync"

	"crypto_bot/internal/models"
)

type Memory struct {
	mu   sync.RWMutex
	data map[string]models.Alarm
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]models.Alarm)}
}

func (m *Memory) Add(_ context.Context, a models.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[a.ID] = a
	return nil
}

func (m *Memory) ListByUser(_ context.Context, userID int64) ([]models.Alarm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Alarm, 0)
	for _, a := range m.data {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortAlarms(out)
	return out, nil
}

func (m *Memory) CountByUser(ctx context.Context, userID int64) (int, error) {
	list, err := m.ListByUser(ctx, userID)
	return len(list), err
}

func (m *Memory) All(_ context.Context) ([]models.Alarm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Alarm, 0, len(m.data))
	for _, a := range m.data {
		out = append(out, a)
	}
	sortAlarms(out)
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return false, nil
	}
	delete(m.data, id)
	return true, nil
}

func (m *Memory) DeleteBySymbol(_ context.Context, userID int64, symbol string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, a := range m.data {
		if a.UserID == userID && a.Symbol == symbol {
			delete(m.data, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }

// sortAlarms: по времени создания, затем по id: порядок как у SQL-хранилищ.
func sortAlarms(list []models.Alarm) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
