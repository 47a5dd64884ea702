/*
DESCRIPTION
  classify.go provides the error classification policy used by the upload
  retry loop. Failures are first reduced to a status code and an error kind
  tag, and the pair is then mapped to a retriable or fatal classification.

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

package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"syscall"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Kind tags the transport level nature of a failure.
type Kind int

// Error kinds. KindNone is used when the failure carries a status code.
const (
	KindNone Kind = iota
	KindNotConnected
	KindIncompleteRead
	KindImproperConnectionState
	KindCannotSend
	KindResponseNotReady
	KindBadStatusLine
	KindIO
	KindOther
)

var kindNames = map[Kind]string{
	KindNone:                    "none",
	KindNotConnected:            "not connected",
	KindIncompleteRead:          "incomplete read",
	KindImproperConnectionState: "improper connection state",
	KindCannotSend:              "cannot send request",
	KindResponseNotReady:        "response not ready",
	KindBadStatusLine:           "bad status line",
	KindIO:                      "i/o",
	KindOther:                   "other",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Verdict is the decision made about a failure.
type Verdict int

const (
	Fatal Verdict = iota
	Retriable
)

func (v Verdict) String() string {
	if v == Retriable {
		return "retriable"
	}
	return "fatal"
}

// Classification is the result of classifying a failure.
type Classification struct {
	Verdict Verdict
	Reason  string
}

// Retriable reports whether the failure may be retried.
func (c Classification) Retriable() bool { return c.Verdict == Retriable }

// retriableStatus holds the HTTP status codes that are always retried.
var retriableStatus = map[int]bool{
	500: true,
	502: true,
	503: true,
	504: true,
}

// Classify maps a status code (0 if there is none) and an error kind to a
// Classification. A status code, when present, decides the outcome on its own.
func Classify(status int, kind Kind) Classification {
	if status != 0 {
		if retriableStatus[status] {
			return Classification{Retriable, fmt.Sprintf("a retriable HTTP error %d occurred", status)}
		}
		return Classification{Fatal, fmt.Sprintf("an HTTP error %d occurred", status)}
	}

	switch kind {
	case KindNotConnected, KindIncompleteRead, KindImproperConnectionState,
		KindCannotSend, KindResponseNotReady, KindBadStatusLine, KindIO:
		return Classification{Retriable, fmt.Sprintf("a retriable %s error occurred", kind)}
	}
	return Classification{Fatal, "a non-retriable error occurred"}
}

// Tag reduces err to the status code and kind understood by Classify.
func Tag(err error) (status int, kind Kind) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, KindNone
	}

	// Token endpoint failures are authorisation problems, not transient ones.
	var tokErr *oauth2.RetrieveError
	if errors.As(err, &tokErr) {
		return 0, KindOther
	}

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return 0, KindIncompleteRead
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		return 0, KindNotConnected
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, net.ErrClosed):
		return 0, KindImproperConnectionState
	case errors.Is(err, syscall.EPIPE):
		return 0, KindCannotSend
	case errors.Is(err, io.EOF):
		// The server closed the connection before sending a status line.
		return 0, KindBadStatusLine
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return 0, KindNotConnected
		case "write":
			return 0, KindCannotSend
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, KindResponseNotReady
	}

	if strings.Contains(err.Error(), "malformed HTTP") {
		return 0, KindBadStatusLine
	}

	var (
		urlErr  *url.Error
		pathErr *fs.PathError
	)
	if opErr != nil || errors.As(err, &urlErr) || errors.As(err, &pathErr) {
		return 0, KindIO
	}
	return 0, KindOther
}

// ClassifyError classifies err using Tag and Classify.
func ClassifyError(err error) Classification {
	return Classify(Tag(err))
}
