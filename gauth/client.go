/*
DESCRIPTION
  client.go provides the HTTP clients used for Google API requests. The
  transport never retries requests itself, leaving retry decisions to the
  caller.

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
	"net/http"

	"github.com/ausocean/utils/logging"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// NewBaseClient returns an HTTP client that performs each request exactly
// once. Failed requests are returned to the caller unchanged.
func NewBaseClient(log logging.Logger) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.CheckRetry = noRetry(log)
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{log}
	return c.StandardClient()
}

// noRetry is a retryablehttp.CheckRetry that never retries.
func noRetry(log logging.Logger) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			log.Debug("request failed, not retrying", "error", err)
		}
		return false, nil
	}
}

// WithBaseClient returns a copy of ctx that carries a client from
// NewBaseClient for use by oauth2 token exchanges and refreshes, and by
// clients from NewHTTPClient. If ctx already carries a client it is returned
// unchanged.
func WithBaseClient(ctx context.Context, log logging.Logger) context.Context {
	if _, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, NewBaseClient(log))
}

// NewHTTPClient returns a client that authorises requests with tokens from ts
// and sends them with the base client carried by ctx.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource, log logging.Logger) *http.Client {
	return oauth2.NewClient(WithBaseClient(ctx, log), ts)
}

// leveledLogger adapts a logging.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logging.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warning(msg, keysAndValues...)
}
