/*
DESCRIPTION
  secrets.go provides loading of Google OAuth2 client secrets from either a
  file or a Google Storage bucket object, and creation of an oauth2 config
  from them.

AUTHORS
  Alan Noble <alan@ausocean.org>

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

// Package gauth provides Google OAuth2 authorisation for installed
// applications, with client secrets and tokens kept in files or Google
// Storage.
package gauth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SecretsEnvVar names the environment variable that may hold the location of
// the client secrets.
const SecretsEnvVar = "YOUTUBE_SECRETS"

// ErrNoSecrets is returned when no client secrets location is available.
var ErrNoSecrets = errors.New("no client secrets location")

// SecretsLocation returns loc, or the value of the YOUTUBE_SECRETS environment
// variable if override is true and the variable is set.
func SecretsLocation(loc string, override bool) (string, error) {
	if override {
		if env := os.Getenv(SecretsEnvVar); env != "" {
			loc = env
		}
	}
	if loc == "" {
		return "", ErrNoSecrets
	}
	return loc, nil
}

// ReadSecrets returns the client secrets JSON stored at loc, which is either a
// file path or a gs://<bucket_name>/<object_name> URL.
func ReadSecrets(ctx context.Context, loc string) ([]byte, error) {
	secrets, err := ReadLocation(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("could not read client secrets from %s: %w", loc, err)
	}
	return secrets, nil
}

// Config creates and returns an oauth2.Config from the provided client secrets
// and scopes.
func Config(secrets []byte, scopes ...string) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(secrets, scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not create config from client secrets: %w", err)
	}
	return cfg, nil
}
