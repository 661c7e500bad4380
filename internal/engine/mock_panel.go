package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/visitor-sync/internal/model"
)

// MockSession is a test implementation of PanelSession.
type MockSession struct {
	// Functions that can be set by tests to control behavior
	LoginFn  func(ctx context.Context, creds model.Credentials) (string, error)
	UpdateFn func(ctx context.Context, update model.Update) error

	loginCalls  []model.Credentials
	updateCalls []model.Update
	mu          sync.Mutex
}

// Login implements PanelSession.Login.
func (m *MockSession) Login(ctx context.Context, creds model.Credentials) (string, error) {
	m.mu.Lock()
	m.loginCalls = append(m.loginCalls, creds)
	fn := m.LoginFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, creds)
	}

	// Default behavior: an empty panel page
	return "<html><body></body></html>", nil
}

// Update implements PanelSession.Update.
func (m *MockSession) Update(ctx context.Context, update model.Update) error {
	m.mu.Lock()
	m.updateCalls = append(m.updateCalls, update)
	fn := m.UpdateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, update)
	}
	return nil
}

// LoginCalls returns the credentials of every Login call.
func (m *MockSession) LoginCalls() []model.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Credentials(nil), m.loginCalls...)
}

// UpdateCalls returns the payload of every Update call.
func (m *MockSession) UpdateCalls() []model.Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Update(nil), m.updateCalls...)
}

// MockSessionFactory hands out sessions and counts how many were started.
type MockSessionFactory struct {
	// Session is returned by every call unless Err is set.
	Session *MockSession
	Err     error
	calls   int
	mu      sync.Mutex
}

// New implements SessionFactory.
func (f *MockSessionFactory) New() (PanelSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Session, nil
}

// Calls returns the number of sessions requested.
func (f *MockSessionFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Ensure MockSession implements PanelSession interface.
var _ PanelSession = (*MockSession)(nil)
