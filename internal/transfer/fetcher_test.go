package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/model"
)

type pipeConn struct {
	io.Reader
	io.WriteCloser
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// memServer is an in-memory SFTP server reachable over pipes.
type memServer struct {
	handlers sftp.Handlers
	dials    int
	closes   int
}

func newMemServer() *memServer {
	return &memServer{handlers: sftp.InMemHandler()}
}

func (m *memServer) connect(t *testing.T) (*sftp.Client, io.Closer) {
	t.Helper()

	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server := sftp.NewRequestServer(pipeConn{serverRead, serverWrite}, m.handlers)
	go func() {
		_ = server.Serve()
	}()

	client, err := sftp.NewClientPipe(clientRead, clientWrite)
	require.NoError(t, err)

	return client, closerFunc(func() error {
		m.closes++
		return server.Close()
	})
}

func (m *memServer) put(t *testing.T, name string, data []byte) {
	t.Helper()

	client, closer := m.connect(t)
	defer func() {
		_ = client.Close()
		_ = closer.Close()
	}()

	f, err := client.Create(name)
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func (m *memServer) fetcher(t *testing.T, config Config) *Fetcher {
	t.Helper()

	f := NewFetcher(config)
	f.dial = func(_ context.Context, creds model.Credentials) (*sftp.Client, io.Closer, error) {
		m.dials++
		if creds.Password != "sftp-secret" {
			return nil, nil, errors.Join(common.ErrTransfer, errors.New("ssh: unable to authenticate"))
		}
		client, closer := m.connect(t)
		return client, closer, nil
	}
	return f
}

var testCreds = model.Credentials{Username: "exporter", Password: "sftp-secret"}

func TestFetch(t *testing.T) {
	server := newMemServer()
	content := []byte("ID,CURRENT\n119,42\n121,7\n")
	server.put(t, "/Current_2024-03-05.csv", content)

	dir := t.TempDir()
	f := server.fetcher(t, Config{Host: "localhost", Port: 2222})

	localPath, err := f.Fetch(context.Background(), testCreds, "Current_2024-03-05.csv", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Current_2024-03-05.csv"), localPath)
	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	assert.Equal(t, 1, server.dials)
	assert.GreaterOrEqual(t, server.closes, 2, "upload and fetch connections must both be closed")
}

func TestFetch_WithProgress(t *testing.T) {
	server := newMemServer()
	content := bytes.Repeat([]byte("120,1\n"), 2048)
	server.put(t, "/Current_2024-03-06.csv", content)

	var progress bytes.Buffer
	f := server.fetcher(t, Config{Host: "localhost", Port: 2222, Progress: &progress})

	localPath, err := f.Fetch(context.Background(), testCreds, "Current_2024-03-06.csv", t.TempDir())
	require.NoError(t, err)

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Contains(t, progress.String(), "Downloading Current_2024-03-06.csv")
}

func TestFetch_MissingRemoteFile(t *testing.T) {
	server := newMemServer()
	dir := t.TempDir()
	f := server.fetcher(t, Config{Host: "localhost", Port: 2222})

	_, err := f.Fetch(context.Background(), testCreds, "Current_2024-03-05.csv", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransfer)

	_, statErr := os.Stat(filepath.Join(dir, "Current_2024-03-05.csv"))
	assert.True(t, os.IsNotExist(statErr), "no partial file may be left behind")
	assert.Equal(t, 1, server.closes, "connection must be closed on failure")
}

func TestFetch_AuthenticationFailure(t *testing.T) {
	server := newMemServer()
	f := server.fetcher(t, Config{Host: "localhost", Port: 2222})

	_, err := f.Fetch(context.Background(), model.Credentials{Username: "exporter", Password: "nope"}, "Current_2024-03-05.csv", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransfer)
	assert.Equal(t, 0, server.closes)
}

func TestFetch_LocalDirectoryMissing(t *testing.T) {
	server := newMemServer()
	server.put(t, "/Current_2024-03-05.csv", []byte("ID,CURRENT\n"))
	f := server.fetcher(t, Config{Host: "localhost", Port: 2222})

	_, err := f.Fetch(context.Background(), testCreds, "Current_2024-03-05.csv", filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrWorkspace)
}

func TestFetch_Unreachable(t *testing.T) {
	f := NewFetcher(Config{Host: "127.0.0.1", Port: 1, Timeout: time.Second})

	_, err := f.Fetch(context.Background(), testCreds, "Current_2024-03-05.csv", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransfer)
}

func TestConfigAddress(t *testing.T) {
	assert.Equal(t, "pureaisftp.purematic.de:2222", Config{Host: "pureaisftp.purematic.de", Port: 2222}.Address())
	assert.Equal(t, "[::1]:22", Config{Host: "::1", Port: 22}.Address())
}

func TestHostKeyCallback(t *testing.T) {
	callback, err := HostKeyCallback("")
	require.NoError(t, err)
	assert.NotNil(t, callback)

	_, err = HostKeyCallback(filepath.Join(t.TempDir(), "missing_known_hosts"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransfer)

	empty := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	callback, err = HostKeyCallback(empty)
	require.NoError(t, err)
	assert.NotNil(t, callback)
}
