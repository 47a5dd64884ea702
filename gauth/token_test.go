/*
DESCRIPTION
  token_test.go tests token storage and retrieval in token.go.

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

package gauth

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSaveLoadToken(t *testing.T) {
	ctx := context.Background()
	loc := filepath.Join(t.TempDir(), "uploader.token.json")

	want := &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, SaveToken(ctx, loc, want))

	got, err := LoadToken(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.TokenType, got.TokenType)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))
}

func TestLoadTokenErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := LoadToken(ctx, filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0600))
	_, err = LoadToken(ctx, bad)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestGetTokenStored(t *testing.T) {
	ctx := context.Background()
	loc := filepath.Join(t.TempDir(), "uploader.token.json")
	require.NoError(t, SaveToken(ctx, loc, &oauth2.Token{AccessToken: "stored"}))

	prompt := func(string) error {
		t.Fatal("should not prompt when a token is stored")
		return nil
	}
	tok, err := GetToken(ctx, &oauth2.Config{}, loc, prompt, (*logging.TestLogger)(t))
	require.NoError(t, err)
	assert.Equal(t, "stored", tok.AccessToken)
}

func TestGetTokenAuthorises(t *testing.T) {
	ctx := context.Background()
	loc := filepath.Join(t.TempDir(), "uploader.token.json")
	cfg, prompt := newAuthFixture(t)

	tok, err := GetToken(ctx, cfg, loc, prompt, (*logging.TestLogger)(t))
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)

	stored, err := LoadToken(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
}

func TestGetTokenCorrupt(t *testing.T) {
	ctx := context.Background()
	loc := filepath.Join(t.TempDir(), "uploader.token.json")
	require.NoError(t, os.WriteFile(loc, []byte("{"), 0600))

	prompt := func(string) error {
		t.Fatal("should not prompt when the stored token is unreadable")
		return nil
	}
	_, err := GetToken(ctx, &oauth2.Config{}, loc, prompt, (*logging.TestLogger)(t))
	assert.Error(t, err)
}
