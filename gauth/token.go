/*
DESCRIPTION
  token.go provides functionality to obtain a google authorisation token for
  use by google APIs to allow access for control of a user's account. If the
  token file or google storage bucket object does not exist, i.e. a token does
  not exist, the user is prompted to provide authorisation for a chosen
  account, from which a token is generated and stored.

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

package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ausocean/utils/logging"
	"golang.org/x/oauth2"
)

// LoadToken reads an oauth2 token stored as JSON at loc, which is either a
// file path or a gs://<bucket_name>/<object_name> URL. If there is no token
// at loc the returned error wraps fs.ErrNotExist.
func LoadToken(ctx context.Context, loc string) (*oauth2.Token, error) {
	b, err := ReadLocation(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("could not load token: %w", err)
	}

	tok := &oauth2.Token{}
	err = json.Unmarshal(b, tok)
	if err != nil {
		return nil, fmt.Errorf("could not decode token from %s: %w", loc, err)
	}
	return tok, nil
}

// SaveToken stores tok as JSON at loc, overwriting any previous token.
func SaveToken(ctx context.Context, loc string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("could not encode token: %w", err)
	}
	err = WriteLocation(ctx, loc, b)
	if err != nil {
		return fmt.Errorf("could not save token to %s: %w", loc, err)
	}
	return nil
}

// GetToken returns the oauth2 token stored at loc. If no token is stored, the
// user is asked to authorise access using prompt, and the resulting token is
// stored at loc before being returned.
func GetToken(ctx context.Context, cfg *oauth2.Config, loc string, prompt PromptFunc, log logging.Logger) (*oauth2.Token, error) {
	tok, err := LoadToken(ctx, loc)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	log.Info("no stored token, requesting authorisation", "location", loc)
	tok, err = Authorise(ctx, cfg, prompt, log)
	if err != nil {
		return nil, fmt.Errorf("could not authorise: %w", err)
	}

	err = SaveToken(ctx, loc, tok)
	if err != nil {
		return nil, err
	}
	log.Info("saved new token", "location", loc)
	return tok, nil
}
