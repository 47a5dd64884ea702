/*
DESCRIPTION
  run.go wires authorisation, the resumable upload session and the retry loop
  together to upload a single video.

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

package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"github.com/docker/go-units"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/ausocean/ytupload/gauth"
	"github.com/ausocean/ytupload/upload"
	"github.com/ausocean/ytupload/utils"
	"github.com/ausocean/ytupload/youtube"
)

// OAuth2 scopes requested. The read only scope allows the processing status
// of uploaded videos to be checked.
var scopes = []string{ytapi.YoutubeUploadScope, ytapi.YoutubeReadonlyScope}

// uploadVideo uploads the video described by req. An error is returned if the
// upload could not be started; the outcome of a started upload is reported
// in the returned Result.
func uploadVideo(ctx context.Context, cfg *config, req *youtube.Request, prompt io.Writer, log logging.Logger) (upload.Result, error) {
	secretsLoc, err := gauth.SecretsLocation(cfg.secrets, !cfg.secretsSet)
	if err != nil {
		return upload.Result{}, err
	}
	secrets, err := gauth.ReadSecrets(ctx, secretsLoc)
	if err != nil {
		return upload.Result{}, err
	}
	oauthCfg, err := gauth.Config(secrets, scopes...)
	if err != nil {
		return upload.Result{}, err
	}

	// All Google requests, including token exchange and refresh, go through
	// the non-retrying base client.
	ctx = gauth.WithBaseClient(ctx, log)

	tokLoc := cfg.token
	if tokLoc == "" {
		tokLoc = utils.TokenURIFromSecrets(secretsLoc)
	}
	tok, err := gauth.GetToken(ctx, oauthCfg, tokLoc, promptFunc(prompt), log)
	if err != nil {
		return upload.Result{}, fmt.Errorf("could not get youtube credentials token: %w", err)
	}
	ts := gauth.NewSmartTokenSource(ctx, oauthCfg, tok, func(tok *oauth2.Token) error {
		return gauth.SaveToken(ctx, tokLoc, tok)
	}, log)
	client := gauth.NewHTTPClient(ctx, ts, log)

	f, err := os.Open(req.File())
	if err != nil {
		return upload.Result{}, fmt.Errorf("could not open video file: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return upload.Result{}, fmt.Errorf("could not stat video file: %w", err)
	}

	sess, err := youtube.NewSession(client, req.Video(), f, fi.Size(),
		youtube.WithChunkSize(cfg.chunkSize),
		youtube.WithMediaType(mediaType(req.File())),
	)
	if err != nil {
		return upload.Result{}, fmt.Errorf("could not create upload session: %w", err)
	}

	log.Info("starting upload", "file", req.File(), "size", units.HumanSizeWithPrecision(float64(fi.Size()), 3), "privacy", req.PrivacyStatus(), "publishAt", req.PublishAt())
	res := upload.Run(ctx, sess, upload.DefaultPolicy(), log)

	if res.Outcome == upload.OutcomeSuccess && cfg.checkStatus {
		reportStatus(ctx, client, res.VideoID, log)
	}
	return res, nil
}

// reportStatus logs the processing status of an uploaded video. Failure to
// get the status does not affect the upload outcome.
func reportStatus(ctx context.Context, client *http.Client, id string, log logging.Logger) {
	svc, err := ytapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Warning("could not create youtube service", "error", err)
		return
	}
	status, err := youtube.CheckUploadStatus(ctx, svc, id)
	if err != nil {
		log.Warning("could not check upload status", "id", id, "error", err)
		return
	}
	log.Info("upload status", "id", id, "status", status)
}

// promptFunc returns a gauth.PromptFunc that asks the user on w to visit the
// authorisation URL.
func promptFunc(w io.Writer) gauth.PromptFunc {
	return func(authURL string) error {
		_, err := fmt.Fprintf(w, "Visit the following URL to authorise ytupload, then return here:\n\n%s\n\n", authURL)
		return err
	}
}

// mediaType returns the MIME type for the named file.
func mediaType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
