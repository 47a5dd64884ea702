/*
DESCRIPTION
  config.go provides command line configuration parsing and validation for
  ytupload.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>

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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"
	"google.golang.org/api/googleapi"

	"github.com/ausocean/ytupload/youtube"
)

// Flag defaults.
const (
	defaultSecrets  = "youtube-uploader-client-credentials.json"
	defaultLogLevel = "info"
)

// Publish date and time layouts.
const (
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04"
	timeLayoutSecond = "15:04:05"
)

// errValidation is wrapped by all configuration errors.
var errValidation = errors.New("invalid arguments")

// logLevels maps level names to logging levels.
var logLevels = map[string]int8{
	"debug":   logging.Debug,
	"info":    logging.Info,
	"warning": logging.Warning,
	"error":   logging.Error,
	"fatal":   logging.Fatal,
}

// config holds the command line configuration.
type config struct {
	file        string
	title       string
	description string
	category    string
	keywords    string
	privacy     string
	publishDate string
	publishTime string
	secrets     string
	token       string
	chunkSize   int64
	checkStatus bool
	logLevel    string
	logFile     string

	// secretsSet records whether -client-secrets-file was given.
	secretsSet bool
}

// parseFlags parses the command line arguments. Usage and errors are written
// to out. flag.ErrHelp is returned if help was requested.
func parseFlags(args []string, out io.Writer) (*config, error) {
	var c config
	fs := flag.NewFlagSet("ytupload", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&c.file, "file", "", "Video file to upload (required)")
	fs.StringVar(&c.title, "title", youtube.DefaultTitle, "Video title")
	fs.StringVar(&c.description, "description", youtube.DefaultDescription, "Video description")
	fs.StringVar(&c.category, "category", youtube.DefaultCategory, "Numeric video category ID or category name, e.g. 22 or \"People & Blogs\"")
	fs.StringVar(&c.keywords, "keywords", "", "Video keywords, comma separated")
	fs.StringVar(&c.privacy, "privacy-status", youtube.DefaultPrivacy, "Video privacy status: public, private or unlisted")
	fs.StringVar(&c.publishDate, "publish-at-date", "", "Scheduled publish date, YYYY-MM-DD; requires -publish-at-time and makes the video private until then")
	fs.StringVar(&c.publishTime, "publish-at-time", "", "Scheduled publish time in local time, HH:MM or HH:MM:SS; requires -publish-at-date")
	fs.StringVar(&c.secrets, "client-secrets-file", defaultSecrets, "Client secrets file or gs://bucket/object; "+
		"if not given, the YOUTUBE_SECRETS environment variable is used when set")
	fs.StringVar(&c.token, "token-file", "", "OAuth2 token file or gs://bucket/object (default: beside the client secrets, named <name>.token.json)")
	fs.Int64Var(&c.chunkSize, "chunk-size", googleapi.DefaultUploadChunkSize, "Upload chunk size in bytes, rounded up to a multiple of 256 KiB; -1 sends the whole file in one request")
	fs.BoolVar(&c.checkStatus, "check-status", false, "Report the processing status of the video after upload")
	fs.StringVar(&c.logLevel, "log-level", defaultLogLevel, "Log level: debug, info, warning, error or fatal")
	fs.StringVar(&c.logFile, "log-file", "", "Also log to this file, rotated by size")

	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errValidation, err)
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("%w: unexpected arguments: %s", errValidation, strings.Join(fs.Args(), " "))
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "client-secrets-file" {
			c.secretsSet = true
		}
	})
	return &c, nil
}

// level returns the configured logging level.
func (c *config) level() (int8, error) {
	l, ok := logLevels[strings.ToLower(c.logLevel)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown log level: %s", errValidation, c.logLevel)
	}
	return l, nil
}

// validate checks the configuration and returns the upload request it
// describes. No network activity occurs.
func (c *config) validate() (*youtube.Request, error) {
	if c.file == "" {
		return nil, fmt.Errorf("%w: -file is required", errValidation)
	}
	fi, err := os.Stat(c.file)
	if err != nil {
		return nil, fmt.Errorf("%w: please specify a valid file: %w", errValidation, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", errValidation, c.file)
	}

	if c.chunkSize == 0 {
		return nil, fmt.Errorf("%w: chunk size cannot be zero", errValidation)
	}
	if _, err := c.level(); err != nil {
		return nil, err
	}

	opts := []youtube.VideoUploadOption{
		youtube.WithTitle(c.title),
		youtube.WithDescription(c.description),
		youtube.WithCategory(c.category),
		youtube.WithPrivacy(c.privacy),
	}
	if tags := youtube.ParseKeywords(c.keywords); len(tags) != 0 {
		opts = append(opts, youtube.WithTags(tags))
	}

	at, ok, err := c.publishAt()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, youtube.WithPublishAt(at))
	}

	req, err := youtube.NewRequest(c.file, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errValidation, err)
	}
	return req, nil
}

// publishAt returns the scheduled publish time in the local time zone, if
// one was given.
func (c *config) publishAt() (time.Time, bool, error) {
	switch {
	case c.publishDate == "" && c.publishTime == "":
		return time.Time{}, false, nil
	case c.publishDate == "" || c.publishTime == "":
		return time.Time{}, false, fmt.Errorf("%w: -publish-at-date and -publish-at-time must be given together", errValidation)
	}

	for _, layout := range []string{timeLayout, timeLayoutSecond} {
		t, err := time.ParseInLocation(dateLayout+" "+layout, c.publishDate+" "+c.publishTime, time.Local)
		if err == nil {
			return t, true, nil
		}
	}

	if _, err := time.Parse(dateLayout, c.publishDate); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: invalid publish date %q, want YYYY-MM-DD", errValidation, c.publishDate)
	}
	return time.Time{}, false, fmt.Errorf("%w: invalid publish time %q, want HH:MM or HH:MM:SS", errValidation, c.publishTime)
}
