/*
DESCRIPTION
  storage.go provides basic storage through the google storage bucket API or
  files. This is designed primarily with client secrets and authorisation
  token storage in mind so it is limited in function.

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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// The URL scheme that represents a Google Storage Bucket.
const gsbScheme = "gs://"

// IsGoogleStorage reports whether loc names a Google Storage object.
func IsGoogleStorage(loc string) bool {
	return strings.HasPrefix(loc, gsbScheme)
}

// ReadLocation returns the contents of loc, which is either a file path or a
// Google Storage URL of the form gs://<bucket_name>/<object_name>. If loc does
// not exist the returned error wraps fs.ErrNotExist.
func ReadLocation(ctx context.Context, loc string) ([]byte, error) {
	if IsGoogleStorage(loc) {
		return ReadGoogleStorageBucket(ctx, loc)
	}
	return os.ReadFile(loc)
}

// WriteLocation replaces the contents of loc with data. Files are created
// with permissions restricted to the current user.
func WriteLocation(ctx context.Context, loc string, data []byte) error {
	if IsGoogleStorage(loc) {
		return writeObject(ctx, loc, data)
	}
	if dir := filepath.Dir(loc); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("could not create directory for %s: %w", loc, err)
		}
	}
	return os.WriteFile(loc, data, 0600)
}

// ReadGoogleStorageBucket read the contents of the Google Storage
// bucket specified by the URI.  The URI must take the form:
// gs://<bucket_name>/<object_name>
func ReadGoogleStorageBucket(ctx context.Context, uri string) ([]byte, error) {
	var bytes []byte
	err := withObject(ctx, uri, func(obj *storage.ObjectHandle) error {
		r, err := obj.NewReader(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s: %w", fs.ErrNotExist, uri, err)
		}
		if err != nil {
			return fmt.Errorf("cannot create GSB reader: %w", err)
		}
		defer r.Close()

		bytes, err = io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("cannot read GSB: %w", err)
		}
		return nil
	})
	return bytes, err
}

// writeObject writes data to the bucket object at the given URI, creating or
// overwriting the object.
func writeObject(ctx context.Context, uri string, data []byte) error {
	return withObject(ctx, uri, func(obj *storage.ObjectHandle) error {
		w := obj.NewWriter(ctx)
		w.ContentType = "application/json"
		if _, err := w.Write(data); err != nil {
			w.Close()
			return fmt.Errorf("could not write object: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("could not close written object: %w", err)
		}
		return nil
	})
}

// withObject calls fn with a handle for the google storage bucket object with
// the provided uri. The object need not exist. The storage client is closed
// when fn returns.
func withObject(ctx context.Context, uri string, fn func(*storage.ObjectHandle) error) error {
	bktName, objName, err := googleStorageAddr(uri)
	if err != nil {
		return fmt.Errorf("could not parse uri: %w", err)
	}

	c, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("cannot create GSB client: %w", err)
	}
	defer c.Close()

	return fn(c.Bucket(bktName).Object(objName))
}

func googleStorageAddr(addr string) (bucket, object string, err error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("url does not have gs scheme: %s", u)
	}
	object = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("invalid GSB URL %s", addr)
	}
	return u.Host, object, nil
}
