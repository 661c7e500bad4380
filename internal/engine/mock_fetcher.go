package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/visitor-sync/internal/model"
)

// MockFetcher is a test implementation of FileFetcher. By default it writes
// Content to <dir>/<fileName>.
type MockFetcher struct {
	FetchFn func(ctx context.Context, creds model.Credentials, fileName, dir string) (string, error)
	Content string
	calls   []FetchCall
	mu      sync.Mutex
}

// FetchCall records the parameters of a Fetch call.
type FetchCall struct {
	Creds    model.Credentials
	FileName string
	Dir      string
}

// Fetch implements FileFetcher.Fetch.
func (m *MockFetcher) Fetch(ctx context.Context, creds model.Credentials, fileName, dir string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, FetchCall{Creds: creds, FileName: fileName, Dir: dir})
	fn := m.FetchFn
	content := m.Content
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, creds, fileName, dir)
	}

	localPath := filepath.Join(dir, fileName)
	if err := os.WriteFile(localPath, []byte(content), 0600); err != nil {
		return "", err
	}
	return localPath, nil
}

// Calls returns every recorded Fetch call.
func (m *MockFetcher) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

// Ensure MockFetcher implements FileFetcher interface.
var _ FileFetcher = (*MockFetcher)(nil)
