/*
DESCRIPTION
  upload.go provides construction of the metadata attached to a YouTube video
  upload, and checking of the processing status of an uploaded video.

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

// Package youtube provides video metadata construction and a resumable upload
// session for the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"
)

// Exported errors.
var (
	ErrUnknownStatus = errors.New("unknown video status")
	ErrNotFound      = errors.New("video not found")
)

// Privacy statuses.
const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

// Metadata defaults.
const (
	DefaultTitle       = "Test Title"
	DefaultDescription = "Test Description"
	DefaultCategory    = "22" // People & Blogs.
	DefaultPrivacy     = PrivacyPublic
)

// VideoUploadOption is a functional option type for configuring YouTube video uploads.
type VideoUploadOption func(*youtube.Video) error

// WithTitle sets the title of the video being uploaded.
// It returns an error if the title is empty.
func WithTitle(title string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if title == "" {
			return errors.New("title cannot be empty")
		}
		video.Snippet.Title = title
		return nil
	}
}

// WithDescription sets the description of the video being uploaded. An empty
// description is allowed.
func WithDescription(description string) VideoUploadOption {
	return func(video *youtube.Video) error {
		video.Snippet.Description = description
		return nil
	}
}

// WithCategory sets the category of the video being uploaded.
// It accepts either a category ID or a category name, see categories for the
// accepted values. Where a name is shared by more than one category the lowest
// ID is used.
// It returns an error if the category ID/name is not found.
func WithCategory(category string) VideoUploadOption {
	return func(video *youtube.Video) error {
		id := sanitiseCategory(category)
		if id == "" {
			return fmt.Errorf("invalid category ID or name: %s", category)
		}
		video.Snippet.CategoryId = id
		return nil
	}
}

// WithPrivacy sets the privacy status of the video being uploaded.
// It accepts "public", "unlisted", or "private" as valid privacy statuses.
// It returns an error if the privacy status is empty or invalid.
func WithPrivacy(privacy string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if !validPrivacy(privacy) {
			return fmt.Errorf("invalid privacy status: %s", privacy)
		}
		video.Status.PrivacyStatus = privacy
		return nil
	}
}

// WithTags sets the tags for the video being uploaded.
// It returns an error if the tags slice is empty.
func WithTags(tags []string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if len(tags) == 0 {
			return errors.New("tags cannot be empty")
		}
		video.Snippet.Tags = tags
		return nil
	}
}

// WithPublishAt schedules the video to be published at t. A scheduled video is
// always uploaded as private, whatever privacy status is otherwise given,
// and YouTube makes it public at t.
func WithPublishAt(t time.Time) VideoUploadOption {
	return func(video *youtube.Video) error {
		if t.IsZero() {
			return errors.New("publish time cannot be zero")
		}
		video.Status.PublishAt = t.Format(time.RFC3339)
		return nil
	}
}

// Request describes a single video upload. It is immutable once built.
type Request struct {
	file  string
	video youtube.Video
}

// NewRequest returns a Request to upload the named file with the metadata
// described by opts. Defaults are used for any metadata not set by opts:
//   - Title: "Test Title"
//   - Description: "Test Description"
//   - Category: "22" (People & Blogs)
//   - Privacy: "public"
//   - Tags: none
func NewRequest(file string, opts ...VideoUploadOption) (*Request, error) {
	if file == "" {
		return nil, errors.New("file cannot be empty")
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       DefaultTitle,
			Description: DefaultDescription,
			CategoryId:  DefaultCategory,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: DefaultPrivacy},
	}

	for _, opt := range opts {
		if err := opt(video); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Applied last so that option order does not matter.
	if video.Status.PublishAt != "" {
		video.Status.PrivacyStatus = PrivacyPrivate
	}

	return &Request{file: file, video: *video}, nil
}

// File returns the path of the file to upload.
func (r *Request) File() string { return r.file }

// PrivacyStatus returns the effective privacy status of the upload.
func (r *Request) PrivacyStatus() string { return r.video.Status.PrivacyStatus }

// PublishAt returns the scheduled publish time in RFC 3339 format, or the empty
// string if none was set.
func (r *Request) PublishAt() string { return r.video.Status.PublishAt }

// Video returns a copy of the video resource sent when the upload is
// initiated.
func (r *Request) Video() *youtube.Video {
	snippet := *r.video.Snippet
	snippet.Tags = append([]string(nil), r.video.Snippet.Tags...)
	status := *r.video.Status
	return &youtube.Video{Snippet: &snippet, Status: &status}
}

// ParseKeywords splits a comma separated keyword list into tags. Keywords are
// trimmed, and empty and repeated keywords are dropped. Order is kept.
func ParseKeywords(s string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		tags = append(tags, k)
	}
	return tags
}

// Upload Status constants.
const (
	UploadStatusUploaded  = "uploaded"
	UploadStatusProcessed = "processed"
	UploadStatusFailed    = "failed"
	UploadStatusRejected  = "rejected"
	UploadStatusDeleted   = "deleted"
)

// CheckUploadStatus checks the status for the video with the associated videoID.
// the returned status will be one of:
// - UploadStatusUploaded
// - UploadStatusProcessed
// - UploadStatusFailed
// - UploadStatusRejected
// - UploadStatusDeleted
func CheckUploadStatus(ctx context.Context, svc *youtube.Service, videoID string) (string, error) {
	vid, err := svc.Videos.List([]string{"status"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video status: %w", err)
	}

	if len(vid.Items) == 0 || vid.Items[0].Status == nil {
		return "", ErrNotFound
	}

	switch s := vid.Items[0].Status.UploadStatus; s {
	case UploadStatusProcessed, UploadStatusFailed, UploadStatusRejected,
		UploadStatusDeleted, UploadStatusUploaded:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// categories lists the YouTube video categories by ID.
var categories = []struct{ id, name string }{
	{"1", "Film & Animation"},
	{"2", "Autos & Vehicles"},
	{"10", "Music"},
	{"15", "Pets & Animals"},
	{"17", "Sports"},
	{"18", "Short Movies"},
	{"19", "Travel & Events"},
	{"20", "Gaming"},
	{"21", "Videoblogging"},
	{"22", "People & Blogs"},
	{"23", "Comedy"},
	{"24", "Entertainment"},
	{"25", "News & Politics"},
	{"26", "Howto & Style"},
	{"27", "Education"},
	{"28", "Science & Technology"},
	{"29", "Nonprofits & Activism"},
	{"30", "Movies"},
	{"31", "Anime/Animation"},
	{"32", "Action/Adventure"},
	{"33", "Classics"},
	{"34", "Comedy"},
	{"35", "Documentary"},
	{"36", "Drama"},
	{"37", "Family"},
	{"38", "Foreign"},
	{"39", "Horror"},
	{"40", "Sci-Fi/Fantasy"},
	{"41", "Thriller"},
	{"42", "Shorts"},
	{"43", "Shows"},
	{"44", "Trailers"},
}

// sanitiseCategory checks if the given category ID or Name is valid,
// and returns its ID if valid.
func sanitiseCategory(cat string) string {
	for _, c := range categories {
		if c.id == cat || c.name == cat {
			return c.id
		}
	}
	return ""
}

func validPrivacy(privacy string) bool {
	switch privacy {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}
