/*
DESCRIPTION
  retry.go provides the resumable upload retry loop. The loop repeatedly asks
  an upload handle for its next chunk, classifies failures, and backs off
  exponentially with jitter between retries.

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

// Package upload drives a chunked resumable upload to completion, retrying
// transient failures with exponential backoff and jitter.
package upload

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ausocean/utils/logging"
)

// Retry policy defaults.
const (
	MaxRetries  = 10
	BackoffBase = 2
)

// Exported errors.
var (
	ErrGaveUp             = errors.New("no longer attempting to retry")
	ErrUnexpectedResponse = errors.New("the upload failed with an unexpected response")
)

// Progress describes how much of the media the server has acknowledged.
type Progress struct {
	Sent  int64
	Total int64
}

// Percent returns the acknowledged fraction of the media as a percentage.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return 100 * float64(p.Sent) / float64(p.Total)
}

// Response is the final response of an upload.
type Response struct {
	ID   string // Identifier of the uploaded video, empty if none was returned.
	Body string // Raw response body, kept for diagnostics.
}

// Handle is an in-progress chunked upload. NextChunk performs one request. It
// returns a nil Response while the upload is incomplete, and a non-nil
// Response once the server has sent its final reply.
type Handle interface {
	NextChunk(ctx context.Context) (Progress, *Response, error)
}

// Policy controls retry behaviour.
type Policy struct {
	MaxRetries int
	Base       float64

	// Rand returns a uniformly distributed value in [0,1).
	Rand func() float64

	// Sleep blocks for d, returning early with an error if ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy used by the uploader.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: MaxRetries,
		Base:       BackoffBase,
		Rand:       rand.Float64,
		Sleep:      sleep,
	}
}

// Backoff returns the time to wait before the given retry, which is drawn
// uniformly from [0, Base^retry) seconds.
func (p Policy) Backoff(retry int) time.Duration {
	limit := math.Pow(p.Base, float64(retry))
	return time.Duration(p.Rand() * limit * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome is the terminal state of an upload.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeGaveUp
	OutcomeFatal
	OutcomeUnexpectedResponse
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeGaveUp:
		return "gave up"
	case OutcomeFatal:
		return "fatal"
	case OutcomeUnexpectedResponse:
		return "unexpected response"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Attempt is the mutable state of one run of the retry loop.
type Attempt struct {
	Retries   int
	LastError string
	VideoID   string // Only set on success.
}

// Result is returned by Run.
type Result struct {
	Outcome Outcome
	Attempt
	Err error // Nil on success.
}

// Run drives h until it produces a final response, a fatal error occurs, the
// retry budget is exhausted, or ctx is cancelled. Requests are made one at a
// time and at most p.MaxRetries retries are performed.
func Run(ctx context.Context, h Handle, p Policy, log logging.Logger) Result {
	var a Attempt
	for {
		log.Info("uploading file")
		prog, resp, err := h.NextChunk(ctx)
		if err == nil {
			if resp == nil {
				log.Debug("chunk accepted", "sent", prog.Sent, "total", prog.Total, "percent", prog.Percent())
				continue
			}
			if resp.ID == "" {
				log.Error("upload failed with an unexpected response", "response", resp.Body)
				return Result{
					Outcome: OutcomeUnexpectedResponse,
					Attempt: a,
					Err:     fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Body),
				}
			}
			a.VideoID = resp.ID
			log.Info("video was successfully uploaded", "id", resp.ID)
			return Result{Outcome: OutcomeSuccess, Attempt: a}
		}

		if ctx.Err() != nil {
			return interrupted(a, ctx.Err())
		}

		c := ClassifyError(err)
		a.LastError = fmt.Sprintf("%s: %v", c.Reason, err)
		if !c.Retriable() {
			log.Error("upload failed", "error", err, "reason", c.Reason)
			return Result{Outcome: OutcomeFatal, Attempt: a, Err: err}
		}
		log.Warning(c.Reason, "error", err)

		a.Retries++
		if a.Retries > p.MaxRetries {
			log.Error("no longer attempting to retry", "retries", a.Retries-1)
			return Result{Outcome: OutcomeGaveUp, Attempt: a, Err: fmt.Errorf("%w: %s", ErrGaveUp, a.LastError)}
		}

		d := p.Backoff(a.Retries)
		log.Info("sleeping and then retrying", "seconds", d.Seconds(), "retry", a.Retries)
		if err := p.Sleep(ctx, d); err != nil {
			return interrupted(a, err)
		}
	}
}

func interrupted(a Attempt, err error) Result {
	return Result{Outcome: OutcomeInterrupted, Attempt: a, Err: fmt.Errorf("upload interrupted: %w", err)}
}
