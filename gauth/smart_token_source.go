/*
DESCRIPTION
  smart_token_source.go provides an oauth2.TokenSource which notifies a
  callback whenever the underlying token is refreshed, so refreshed tokens can
  be persisted.

AUTHORS
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package gauth

import (
	"context"
	"sync"

	"github.com/ausocean/utils/logging"
	"golang.org/x/oauth2"
)

// tokenNotifyFunc is a callback function signature for notifying when a token
// event happens.
type tokenNotifyFunc func(*oauth2.Token) error

// SmartTokenSource implements the TokenSource Interface, with an additional
// callback function which is called when the underlying token is refreshed.
// It is safe for concurrent use.
type SmartTokenSource struct {
	// Token Source used to get a refresh token.
	src oauth2.TokenSource

	// Callback function which is called when the token is refreshed.
	RefreshNotifyFunc tokenNotifyFunc

	log logging.Logger

	mu sync.Mutex

	// Most recent known token.
	curr *oauth2.Token
}

// NewSmartTokenSource creates a SmartTokenSource with the passed oauth2 config
// and token. The passed refreshCallback function will be called whenever the
// token is refreshed. Token refreshes use the HTTP client carried by ctx, if
// any, see WithBaseClient.
func NewSmartTokenSource(
	ctx context.Context,
	cfg *oauth2.Config,
	tok *oauth2.Token,
	refreshCallback tokenNotifyFunc,
	log logging.Logger,
) *SmartTokenSource {
	return &SmartTokenSource{
		src:               cfg.TokenSource(ctx, tok),
		RefreshNotifyFunc: refreshCallback,
		log:               log,
		curr:              tok,
	}
}

// Token returns a Token with a valid Access Token, calling the RefreshNotifyFunc
// callback if the token is refreshed.
func (s *SmartTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	// Check if the token was refreshed (or no previous access token was known).
	if s.curr == nil || s.curr.AccessToken != tok.AccessToken {
		s.curr = tok
		s.log.Debug("token refreshed", "expiry", tok.Expiry)
		if s.RefreshNotifyFunc == nil {
			return s.curr, nil
		}

		// The refreshed token is still returned if it cannot be persisted.
		if err := s.RefreshNotifyFunc(s.curr); err != nil {
			s.log.Warning("error from refresh notify func", "error", err)
		}
	}

	return s.curr, nil
}
