/*
DESCRIPTION
  config_test.go tests command line parsing and validation in config.go.

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
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/ausocean/ytupload/youtube"
)

// testVideo creates a small video file and returns its path.
func testVideo(t *testing.T) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "reef.mp4")
	require.NoError(t, os.WriteFile(name, []byte("not really a video"), 0600))
	return name
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags([]string{"-file", "reef.mp4"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "reef.mp4", cfg.file)
	assert.Equal(t, "Test Title", cfg.title)
	assert.Equal(t, "Test Description", cfg.description)
	assert.Equal(t, "22", cfg.category)
	assert.Equal(t, "", cfg.keywords)
	assert.Equal(t, "public", cfg.privacy)
	assert.Equal(t, "youtube-uploader-client-credentials.json", cfg.secrets)
	assert.False(t, cfg.secretsSet)
	assert.Equal(t, int64(googleapi.DefaultUploadChunkSize), cfg.chunkSize)
	assert.Equal(t, "info", cfg.logLevel)
}

func TestParseFlagsSecretsSet(t *testing.T) {
	cfg, err := parseFlags([]string{"-client-secrets-file", "gs://ausocean/uploader.json"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, cfg.secretsSet)
	assert.Equal(t, "gs://ausocean/uploader.json", cfg.secrets)
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := parseFlags([]string{"-help"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)

	_, err = parseFlags([]string{"-no-such-flag"}, io.Discard)
	assert.ErrorIs(t, err, errValidation)

	_, err = parseFlags([]string{"-file", "a.mp4", "b.mp4"}, io.Discard)
	assert.ErrorIs(t, err, errValidation)

	_, err = parseFlags([]string{"-chunk-size", "lots"}, io.Discard)
	assert.ErrorIs(t, err, errValidation)
}

func TestValidate(t *testing.T) {
	video := testVideo(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "minimal", args: []string{"-file", video}},
		{name: "missing file flag", args: nil, wantErr: true},
		{name: "missing file", args: []string{"-file", filepath.Join(t.TempDir(), "missing.mp4")}, wantErr: true},
		{name: "directory", args: []string{"-file", t.TempDir()}, wantErr: true},
		{name: "date without time", args: []string{"-file", video, "-publish-at-date", "2026-11-02"}, wantErr: true},
		{name: "time without date", args: []string{"-file", video, "-publish-at-time", "09:30"}, wantErr: true},
		{name: "bad date", args: []string{"-file", video, "-publish-at-date", "02/11/2026", "-publish-at-time", "09:30"}, wantErr: true},
		{name: "bad time", args: []string{"-file", video, "-publish-at-date", "2026-11-02", "-publish-at-time", "9.30am"}, wantErr: true},
		{name: "date and time", args: []string{"-file", video, "-publish-at-date", "2026-11-02", "-publish-at-time", "09:30"}},
		{name: "time with seconds", args: []string{"-file", video, "-publish-at-date", "2026-11-02", "-publish-at-time", "09:30:15"}},
		{name: "invalid privacy", args: []string{"-file", video, "-privacy-status", "friends"}, wantErr: true},
		{name: "category name", args: []string{"-file", video, "-category", "Education"}},
		{name: "invalid category", args: []string{"-file", video, "-category", "99"}, wantErr: true},
		{name: "empty title", args: []string{"-file", video, "-title", ""}, wantErr: true},
		{name: "empty description", args: []string{"-file", video, "-description", ""}},
		{name: "zero chunk size", args: []string{"-file", video, "-chunk-size", "0"}, wantErr: true},
		{name: "whole file chunk", args: []string{"-file", video, "-chunk-size", "-1"}},
		{name: "bad log level", args: []string{"-file", video, "-log-level", "chatty"}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := parseFlags(test.args, io.Discard)
			require.NoError(t, err)

			req, err := cfg.validate()
			if test.wantErr {
				assert.ErrorIs(t, err, errValidation)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, video, req.File())
		})
	}
}

func TestValidateRequest(t *testing.T) {
	video := testVideo(t)
	cfg, err := parseFlags([]string{
		"-file", video,
		"-title", "Reef survey",
		"-description", "North transect",
		"-category", "Science & Technology",
		"-keywords", "reef, survey,,reef",
		"-privacy-status", "unlisted",
	}, io.Discard)
	require.NoError(t, err)

	req, err := cfg.validate()
	require.NoError(t, err)

	v := req.Video()
	assert.Equal(t, "Reef survey", v.Snippet.Title)
	assert.Equal(t, "North transect", v.Snippet.Description)
	assert.Equal(t, "28", v.Snippet.CategoryId)
	assert.Equal(t, []string{"reef", "survey"}, v.Snippet.Tags)
	assert.Equal(t, youtube.PrivacyUnlisted, req.PrivacyStatus())
	assert.Empty(t, req.PublishAt())
}

// A scheduled publish time forces the upload to be private, whatever privacy
// status is requested.
func TestValidatePublishForcesPrivate(t *testing.T) {
	video := testVideo(t)
	for _, privacy := range []string{"public", "unlisted", "private"} {
		cfg, err := parseFlags([]string{
			"-file", video,
			"-privacy-status", privacy,
			"-publish-at-date", "2026-11-02",
			"-publish-at-time", "09:30",
		}, io.Discard)
		require.NoError(t, err)

		req, err := cfg.validate()
		require.NoError(t, err)
		assert.Equal(t, youtube.PrivacyPrivate, req.PrivacyStatus(), "requested %s", privacy)

		want := time.Date(2026, 11, 2, 9, 30, 0, 0, time.Local).Format(time.RFC3339)
		assert.Equal(t, want, req.PublishAt())
	}
}

func TestValidateEmptyDescription(t *testing.T) {
	cfg, err := parseFlags([]string{"-file", testVideo(t), "-description", ""}, io.Discard)
	require.NoError(t, err)

	req, err := cfg.validate()
	require.NoError(t, err)
	assert.Empty(t, req.Video().Snippet.Description)
}

func TestLevel(t *testing.T) {
	for name, want := range logLevels {
		cfg := &config{logLevel: name}
		got, err := cfg.level()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	cfg := &config{logLevel: "DEBUG"}
	got, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, int8(logging.Debug), got)
}
