/*
DESCRIPTION
  session.go provides a resumable upload session against the YouTube video
  upload endpoint. Each call to NextChunk performs one request of the
  resumable protocol, so that the caller controls retries.

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

package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"github.com/ausocean/ytupload/upload"
)

// DefaultEndpoint is the YouTube video upload endpoint.
const DefaultEndpoint = "https://www.googleapis.com/upload/youtube/v3/videos"

// Exported errors.
var (
	ErrNoLocation       = errors.New("no session URI in resumable upload response")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrBadRange         = errors.New("malformed range header")
)

// statusResumeIncomplete is sent by the server while an upload is incomplete.
const statusResumeIncomplete = http.StatusPermanentRedirect

// SessionOption is a functional option type for configuring a Session.
type SessionOption func(*Session) error

// WithEndpoint sets the upload endpoint. It is intended for testing.
func WithEndpoint(endpoint string) SessionOption {
	return func(s *Session) error {
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		s.endpoint = u
		return nil
	}
}

// WithChunkSize sets the number of bytes sent per request. Sizes are rounded
// up to a multiple of googleapi.MinUploadChunkSize. A negative size sends all
// remaining media in a single request.
func WithChunkSize(n int64) SessionOption {
	return func(s *Session) error {
		switch {
		case n == 0:
			return errors.New("chunk size cannot be zero")
		case n < 0:
			s.chunkSize = -1
			return nil
		}
		const step = googleapi.MinUploadChunkSize
		if rem := n % step; rem != 0 {
			n += step - rem
		}
		s.chunkSize = n
		return nil
	}
}

// WithMediaType sets the MIME type of the media.
func WithMediaType(typ string) SessionOption {
	return func(s *Session) error {
		if typ == "" {
			return errors.New("media type cannot be empty")
		}
		s.mediaType = typ
		return nil
	}
}

// Session is a resumable upload of a single video. It implements upload.Handle.
// A Session is not safe for concurrent use.
type Session struct {
	client    *http.Client
	endpoint  *url.URL
	video     *youtube.Video
	media     io.ReaderAt
	size      int64
	chunkSize int64
	mediaType string

	uri    string // Session URI, empty until the session is initiated.
	offset int64  // Bytes acknowledged by the server.
	stale  bool   // Whether offset must be queried before sending.
}

// NewSession returns a Session that uploads size bytes of media with the
// metadata in video, using client for all requests. The client is expected
// to add authorisation and must not retry requests itself.
func NewSession(client *http.Client, video *youtube.Video, media io.ReaderAt, size int64, opts ...SessionOption) (*Session, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid media size: %d", size)
	}
	endpoint, _ := url.Parse(DefaultEndpoint)
	s := &Session{
		client:    client,
		endpoint:  endpoint,
		video:     video,
		media:     media,
		size:      size,
		chunkSize: googleapi.DefaultUploadChunkSize,
		mediaType: "application/octet-stream",
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return s, nil
}

// URI returns the session URI, or the empty string if the session has not
// been initiated.
func (s *Session) URI() string { return s.uri }

// NextChunk performs the next request of the upload. The first call initiates
// the session. Later calls send one chunk of media, first asking the server
// how much it has received if the previous call failed.
func (s *Session) NextChunk(ctx context.Context) (upload.Progress, *upload.Response, error) {
	if s.uri == "" {
		err := s.initiate(ctx)
		return s.progress(), nil, err
	}

	if s.stale {
		resp, err := s.query(ctx)
		if err != nil || resp != nil {
			return s.progress(), resp, err
		}
		s.stale = false
	}

	resp, err := s.send(ctx)
	if err != nil {
		s.stale = true
	}
	return s.progress(), resp, err
}

func (s *Session) progress() upload.Progress {
	return upload.Progress{Sent: s.offset, Total: s.size}
}

// initiate starts a resumable session and records its URI.
func (s *Session) initiate(ctx context.Context) error {
	body, err := json.Marshal(s.video)
	if err != nil {
		return fmt.Errorf("could not encode video resource: %w", err)
	}

	u := *s.endpoint
	q := u.Query()
	q.Set("uploadType", "resumable")
	q.Set("part", "snippet,status")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(s.size, 10))
	req.Header.Set("X-Upload-Content-Type", s.mediaType)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		return err
	}

	loc := res.Header.Get("Location")
	if loc == "" {
		return ErrNoLocation
	}
	uri, err := res.Request.URL.Parse(loc)
	if err != nil {
		return fmt.Errorf("invalid session URI: %w", err)
	}
	s.uri = uri.String()
	return nil
}

// query asks the server how many bytes it has received.
func (s *Session) query(ctx context.Context) (*upload.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("could not create status request: %w", err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.size))
	return s.do(req)
}

// send uploads the chunk starting at the acknowledged offset.
func (s *Session) send(ctx context.Context) (*upload.Response, error) {
	n := s.size - s.offset
	if n < 0 {
		return nil, fmt.Errorf("offset %d is past the end of the media (%d bytes)", s.offset, s.size)
	}
	if s.chunkSize > 0 && s.chunkSize < n {
		n = s.chunkSize
	}

	buf := make([]byte, n)
	read, err := s.media.ReadAt(buf, s.offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(read) == n) {
		return nil, fmt.Errorf("could not read media: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uri, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("could not create chunk request: %w", err)
	}
	req.Header.Set("Content-Type", s.mediaType)
	if n == 0 {
		req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.size))
	} else {
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", s.offset, s.offset+n-1, s.size))
	}
	return s.do(req)
}

// do performs req and interprets the response. A nil Response and nil error
// mean the upload is incomplete, in which case the offset is updated.
func (s *Session) do(req *http.Request) (*upload.Response, error) {
	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer googleapi.CloseBody(res)

	switch res.StatusCode {
	case statusResumeIncomplete:
		h := res.Header.Get("Range")
		off, err := ackOffset(h)
		if err != nil {
			return nil, err
		}
		if off > s.size {
			return nil, fmt.Errorf("%w: %q acknowledges more than %d bytes", ErrBadRange, h, s.size)
		}
		s.offset = off
		return nil, nil

	case http.StatusOK, http.StatusCreated:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read response body: %w", err)
		}
		s.offset = s.size
		var v youtube.Video
		if err := json.Unmarshal(body, &v); err != nil {
			return &upload.Response{Body: string(body)}, nil
		}
		return &upload.Response{ID: v.Id, Body: string(body)}, nil
	}

	if err := googleapi.CheckResponse(res); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status)
}

// ackOffset returns the offset following the byte range in a Range header of
// the form "bytes=0-N". An empty header means nothing has been received.
func ackOffset(h string) (int64, error) {
	if h == "" {
		return 0, nil
	}
	const prefix = "bytes=0-"
	if !strings.HasPrefix(h, prefix) {
		return 0, fmt.Errorf("%w: %q", ErrBadRange, h)
	}
	last, err := strconv.ParseInt(h[len(prefix):], 10, 64)
	if err != nil || last < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadRange, h)
	}
	return last + 1, nil
}
