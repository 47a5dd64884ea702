//go:build unix

/*
DESCRIPTION
  signal_test.go tests signal handling in main.go.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This file is part of ytupload. ytupload is free software: you can
  redistribute it and/or modify it under the terms of the GNU
  General Public License as published by the Free Software
  Foundation, either version 3 of the License, or (at your option)
  any later version.

  ytupload is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signalWait = 5 * time.Second

func TestSignalContext(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			ctx, stop := signalContext(context.Background(), (*logging.TestLogger)(t))
			defer stop()

			require.NoError(t, syscall.Kill(os.Getpid(), sig))
			select {
			case <-ctx.Done():
			case <-time.After(signalWait):
				t.Fatalf("context not cancelled by %s", sig)
			}
		})
	}
}

// SIGPIPE is caught but must not stop the upload.
func TestSignalContextIgnoresPipe(t *testing.T) {
	ctx, stop := signalContext(context.Background(), (*logging.TestLogger)(t))
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGPIPE))
	select {
	case <-ctx.Done():
		t.Fatal("context cancelled by SIGPIPE")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSignalContextStop(t *testing.T) {
	ctx, stop := signalContext(context.Background(), (*logging.TestLogger)(t))
	stop()
	assert.Error(t, ctx.Err())
}

// syncBuffer is a bytes.Buffer that is safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const testSecrets = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

// An interrupt while waiting for the user to authorise ends the run with the
// interrupted exit code and no token is saved.
func TestRunInterrupted(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "secrets.json")
	require.NoError(t, os.WriteFile(secrets, []byte(testSecrets), 0600))
	token := filepath.Join(dir, "token.json")
	video := testVideo(t)

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run([]string{
			"-file", video,
			"-client-secrets-file", secrets,
			"-token-file", token,
		}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "Visit the following URL")
	}, signalWait, 10*time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case code := <-done:
		assert.Equal(t, exitInterrupted, code)
	case <-time.After(signalWait):
		t.Fatal("run did not return after SIGINT")
	}
	assert.Empty(t, stdout.String())
	assert.NoFileExists(t, token)
}
