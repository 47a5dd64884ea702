/*
DESCRIPTION
  ytupload is a command-line utility for uploading a single video file to
  YouTube with a chunked resumable upload, retrying transient failures with
  exponential backoff.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

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

// ytupload uploads a video to YouTube using the YouTube Data API v3.
// Client secrets are read from the file given by -client-secrets-file, or
// the YOUTUBE_SECRETS environment variable, and may be kept in Google Storage.
// On success the ID of the uploaded video is written to standard output. Logs
// are written to standard error.
//
// Exit codes:
//
//	0   success
//	1   upload failed, setup failed, or output pipe closed
//	2   invalid arguments
//	3   gave up after retrying
//	130 interrupted
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/ytupload/upload"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitFailure     = 1
	exitUsage       = 2
	exitGaveUp      = 3
	exitInterrupted = 130
)

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = false
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run runs ytupload with the given arguments and returns the process exit
// code. The video ID is written to stdout, and logs and prompts to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitSuccess
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	level, err := cfg.level()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	log, closeLog := newLogger(level, cfg.logFile, stderr)
	defer closeLog()

	req, err := cfg.validate()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return exitUsage
	}

	ctx, stop := signalContext(context.Background(), log)
	defer stop()

	res, err := uploadVideo(ctx, cfg, req, stderr, log)
	if err != nil {
		if ctx.Err() != nil {
			log.Warning("interrupted", "error", err)
			return exitInterrupted
		}
		log.Error("could not start upload", "error", err)
		return exitFailure
	}

	code := exitCode(res.Outcome)
	if code != exitSuccess {
		log.Error("upload failed", "outcome", res.Outcome, "retries", res.Retries, "error", res.Err)
		return code
	}

	return writeID(stdout, res.VideoID, log)
}

// writeID writes the video id to w and returns the exit code. A closed
// output pipe is reported as a failure.
func writeID(w io.Writer, id string, log logging.Logger) int {
	_, err := fmt.Fprintln(w, id)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) {
			log.Warning("output closed before video id could be written", "id", id)
		} else {
			log.Error("could not write video id", "id", id, "error", err)
		}
		return exitFailure
	}
	return exitSuccess
}

// exitCode maps an upload outcome to a process exit code.
func exitCode(o upload.Outcome) int {
	switch o {
	case upload.OutcomeSuccess:
		return exitSuccess
	case upload.OutcomeGaveUp:
		return exitGaveUp
	case upload.OutcomeInterrupted:
		return exitInterrupted
	default:
		return exitFailure
	}
}

// newLogger returns a logger writing to w and, if path is not empty, to a
// rotated log file at path. The returned function closes the log file.
func newLogger(level int8, path string, w io.Writer) (logging.Logger, func() error) {
	if path == "" {
		return logging.New(level, w, logSuppress), func() error { return nil }
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	return logging.New(level, io.MultiWriter(fileLog, w), logSuppress), fileLog.Close
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM. A
// second signal terminates the process immediately. SIGPIPE is caught so
// that writing to a closed pipe fails with EPIPE rather than killing the
// process.
func signalContext(parent context.Context, log logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	pipe := make(chan os.Signal, 1)
	signal.Notify(pipe, syscall.SIGPIPE)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Warning("received signal, stopping", "signal", sig.String())
			signal.Stop(sigs)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		signal.Stop(pipe)
		cancel()
	}
}
