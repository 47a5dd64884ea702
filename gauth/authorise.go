/*
DESCRIPTION
  authorise.go provides the OAuth2 authorisation code flow for installed
  applications. The user visits an authorisation URL and is redirected back
  to a short-lived HTTP listener on the loopback interface, which receives the
  authorisation code that is then exchanged for a token.

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
	"fmt"
	"net"
	"net/http"

	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Authorisation related constants.
const (
	callbackPath   = "/oauth2callback"
	loopbackListen = "127.0.0.1:0"
)

// Exported errors.
var (
	ErrAccessDenied = errors.New("authorisation was not granted")
	ErrNoCode       = errors.New("no authorisation code in callback")
)

// PromptFunc presents the authorisation URL to the user.
type PromptFunc func(authURL string) error

// Authorise obtains a token for cfg by the authorisation code flow. The
// authorisation URL is passed to prompt, and Authorise then waits for the
// user's browser to be redirected to a loopback listener, or for ctx to be
// cancelled. The redirect URL of cfg is not used.
func Authorise(ctx context.Context, cfg *oauth2.Config, prompt PromptFunc, log logging.Logger) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", loopbackListen)
	if err != nil {
		return nil, fmt.Errorf("could not listen for authorisation callback: %w", err)
	}

	c := *cfg
	c.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	var (
		state    = uuid.NewString()
		verifier = oauth2.GenerateVerifier()
		codes    = make(chan string, 1)
		errs     = make(chan error, 1)
	)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code, err := callbackCode(r, state)
		if err != nil {
			// Requests with a bad state are not from our authorisation URL.
			if !errors.Is(err, errBadState) {
				select {
				case errs <- err:
				default:
				}
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprintln(w, "Authorisation complete. You may close this window.")
	})

	srv := &http.Server{Handler: mux}
	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("authorisation callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))
	log.Debug("waiting for authorisation", "redirect", c.RedirectURL)
	err = prompt(authURL)
	if err != nil {
		return nil, fmt.Errorf("could not prompt for authorisation: %w", err)
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errs:
		return nil, err
	case code = <-codes:
	}

	tok, err := c.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorisation code: %w", err)
	}
	log.Info("authorisation granted")
	return tok, nil
}

var errBadState = errors.New("invalid state in callback")

// callbackCode returns the authorisation code from an authorisation callback
// request.
func callbackCode(r *http.Request, state string) (string, error) {
	q := r.URL.Query()
	if q.Get("state") != state {
		return "", errBadState
	}
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, e)
	}
	code := q.Get("code")
	if code == "" {
		return "", ErrNoCode
	}
	return code, nil
}
