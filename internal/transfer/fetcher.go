// Package transfer downloads the daily export from the SFTP server.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/model"
)

// Config holds the connection settings for the SFTP server.
type Config struct {
	// Progress receives a byte progress bar while downloading; nil disables it.
	Progress       io.Writer
	Host           string
	KnownHostsPath string
	Port           int
	Timeout        time.Duration
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// dialFunc opens an SFTP client plus the closer for its underlying transport.
type dialFunc func(ctx context.Context, creds model.Credentials) (*sftp.Client, io.Closer, error)

// Fetcher downloads single files over SFTP. Every Fetch opens its own
// connection and closes it before returning.
type Fetcher struct {
	dial   dialFunc
	config Config
}

// NewFetcher creates a new SFTP fetcher.
func NewFetcher(config Config) *Fetcher {
	f := &Fetcher{config: config}
	f.dial = f.dialSSH
	return f
}

// Address returns the host:port the fetcher connects to.
func (f *Fetcher) Address() string {
	return f.config.Address()
}

// Fetch downloads /<fileName> into dir and returns the local path. A partial
// local file is removed when the download fails.
func (f *Fetcher) Fetch(ctx context.Context, creds model.Credentials, fileName, dir string) (string, error) {
	client, transport, err := f.dial(ctx, creds)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil && !errors.Is(cerr, io.EOF) {
			slog.DebugContext(ctx, "Closing sftp client failed", "error", cerr)
		}
		if cerr := transport.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			slog.DebugContext(ctx, "Closing sftp connection failed", "error", cerr)
		}
	}()

	// Unblock in-flight reads when the context is canceled.
	stop := context.AfterFunc(ctx, func() {
		_ = transport.Close()
	})
	defer stop()

	remotePath := path.Join("/", fileName)
	localPath := filepath.Join(dir, fileName)

	slog.InfoContext(ctx, "Downloading", "remote", remotePath, "host", f.config.Host)

	if err := f.download(client, remotePath, localPath); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", common.ErrTransfer, ctxErr)
		}
		return "", err
	}

	return localPath, nil
}

func (f *Fetcher) download(client *sftp.Client, remotePath, localPath string) (err error) {
	src, err := client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("%w: failed to open remote %s: %v", common.ErrTransfer, remotePath, err)
	}
	defer func() {
		_ = src.Close()
	}()

	size := int64(-1)
	if info, statErr := src.Stat(); statErr == nil {
		size = info.Size()
	}

	dst, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", common.ErrWorkspace, localPath, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close %s: %v", common.ErrWorkspace, localPath, cerr)
		}
		if err != nil {
			_ = os.Remove(localPath)
		}
	}()

	var w io.Writer = dst
	if f.config.Progress != nil {
		w = io.MultiWriter(dst, newProgressBar(f.config.Progress, size, path.Base(remotePath)))
	}

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("%w: failed to download %s: %v", common.ErrTransfer, remotePath, err)
	}

	return nil
}

func (f *Fetcher) dialSSH(ctx context.Context, creds model.Credentials) (*sftp.Client, io.Closer, error) {
	hostKeyCallback, err := HostKeyCallback(f.config.KnownHostsPath)
	if err != nil {
		return nil, nil, err
	}

	sshConfig := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         f.config.Timeout,
	}

	addr := f.config.Address()
	dialer := &net.Dialer{Timeout: f.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to connect to %s: %v", common.ErrTransfer, addr, err)
	}

	if f.config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(f.config.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: ssh handshake with %s as %s: %v", common.ErrTransfer, addr, creds.Username, err)
	}
	_ = conn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("%w: failed to start sftp subsystem: %v", common.ErrTransfer, err)
	}

	return client, sshClient, nil
}

// HostKeyCallback verifies server keys against a known_hosts file. Without
// a file every host key is accepted.
func HostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		slog.Warn("No known_hosts file configured, accepting any sftp host key")
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // opt-in verification via --known-hosts
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load known hosts %s: %v", common.ErrTransfer, knownHostsPath, err)
	}
	return callback, nil
}

func newProgressBar(w io.Writer, size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
