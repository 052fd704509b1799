package api

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"voxhire/services/interview"
)

func archiveKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("transcripts/%s.txt.zst", sessionID)
}

// archiveTranscript uploads the flattened transcript, zstd-compressed, to
// object storage. Best effort: the transcript of record lives in postgres and
// the archive is a byproduct, so failures are logged and counted, never
// surfaced to the caller.
func (a *API) archiveTranscript(sess *interview.Session) {
	if a.archive == nil || a.cfg.ArchiveBucket == "" || sess.Transcript == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		a.log.Warn().Err(err).Msg("archive: encoder init failed")
		transcriptsArchived.WithLabelValues("error").Inc()
		return
	}
	if _, err := enc.Write([]byte(sess.Transcript)); err != nil {
		enc.Close()
		a.log.Warn().Err(err).Msg("archive: compress failed")
		transcriptsArchived.WithLabelValues("error").Inc()
		return
	}
	if err := enc.Close(); err != nil {
		a.log.Warn().Err(err).Msg("archive: compress failed")
		transcriptsArchived.WithLabelValues("error").Inc()
		return
	}

	key := archiveKey(sess.ID)
	if err := a.archive.PutObject(ctx, a.cfg.ArchiveBucket, key, "application/zstd", bytes.NewReader(buf.Bytes())); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("archive: upload failed")
		transcriptsArchived.WithLabelValues("error").Inc()
		return
	}

	transcriptsArchived.WithLabelValues("ok").Inc()
	a.log.Info().Str("key", key).Msg("transcript archived")
}

// transcriptArchiveURL returns a short-lived download link for the archived
// transcript, or "" when archiving is not configured or the session has no
// transcript yet.
func (a *API) transcriptArchiveURL(ctx context.Context, sess *interview.Session) string {
	if a.archive == nil || a.cfg.ArchiveBucket == "" {
		return ""
	}
	if sess.Status != interview.StatusCompleted || sess.Transcript == "" {
		return ""
	}

	url, err := a.archive.PresignGet(ctx, a.cfg.ArchiveBucket, archiveKey(sess.ID), 15*time.Minute)
	if err != nil {
		a.log.Warn().Err(err).Stringer("session_id", sess.ID).Msg("archive: presign failed")
		return ""
	}
	return url
}
