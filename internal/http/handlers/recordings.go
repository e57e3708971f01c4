package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wzrd/internal/domain"
	archive "wzrd/pkg/zip"
)

const (
	defaultMaxRecordingBytes = 200 << 20
	maxArchiveEntries        = 200
)

var recordingExtensions = map[string]string{
	"video/webm":      ".webm",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

type recordingDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	StorageKey  string    `json:"storage_key"`
	MIME        string    `json:"mime"`
	Bytes       int64     `json:"bytes"`
	DurationSec int       `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordingsUpload stores the raw request body and registers its metadata.
// user_id, title and duration_sec come from the query string.
func (a *App) RecordingsUpload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, ok := a.requireUserID(w, r)
	if !ok {
		return
	}
	mime := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	ext, ok := recordingExtensions[mime]
	if !ok {
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "recording must be webm, mp4 or mov")
		return
	}
	duration := 0
	if raw := q.Get("duration_sec"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "duration_sec must be a non-negative integer")
			return
		}
		duration = d
	}

	limit := a.MaxRecordingBytes
	if limit <= 0 {
		limit = defaultMaxRecordingBytes
	}
	id := uuid.NewString()
	body := http.MaxBytesReader(w, r.Body, limit)
	key, size, err := a.Store.WriteFrom(r.Context(), fmt.Sprintf("recordings/%s/%s%s", userID, id, ext), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "recording is too large")
			return
		}
		a.fail(w, r, err)
		return
	}
	if size == 0 {
		a.removeRecording(r, key)
		a.error(w, http.StatusBadRequest, "bad_request", "recording body is empty")
		return
	}
	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		title = "Recording " + a.now().UTC().Format("2006-01-02 15:04")
	}
	rec := &domain.ScreenRecording{
		ID:          id,
		UserID:      userID,
		Title:       title,
		StorageKey:  key,
		MIME:        mime,
		Bytes:       size,
		DurationSec: duration,
	}
	if err := a.Recordings.Create(r.Context(), rec); err != nil {
		a.removeRecording(r, key)
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toRecordingDTO(*rec))
}

func (a *App) removeRecording(r *http.Request, key string) {
	if err := a.Store.Remove(context.WithoutCancel(r.Context()), key); err != nil {
		a.logger().Warn().Err(err).Str("storage_key", key).Msg("remove orphaned recording failed")
	}
}

func (a *App) RecordingsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUserID(w, r)
	if !ok {
		return
	}
	recs, err := a.Recordings.ListByUser(r.Context(), userID, queryLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]recordingDTO, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toRecordingDTO(rec))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// RecordingsArchive streams every recording of a user as one zip file.
func (a *App) RecordingsArchive(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUserID(w, r)
	if !ok {
		return
	}
	recs, err := a.Recordings.ListByUser(r.Context(), userID, maxArchiveEntries)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(recs) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no recordings for user")
		return
	}

	entries := make([]archive.Entry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, archive.Entry{
			Name:     path.Base(rec.StorageKey),
			Modified: rec.CreatedAt,
			Open: func() (io.ReadCloser, error) {
				return a.Store.Open(r.Context(), rec.StorageKey)
			},
		})
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recordings-%s.zip"`, a.now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	if err := archive.Write(w, entries); err != nil {
		a.logger().Error().Err(err).Str("user_id", userID).Msg("stream recordings archive failed")
	}
}

func toRecordingDTO(rec domain.ScreenRecording) recordingDTO {
	return recordingDTO{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Title:       rec.Title,
		StorageKey:  rec.StorageKey,
		MIME:        rec.MIME,
		Bytes:       rec.Bytes,
		DurationSec: rec.DurationSec,
		CreatedAt:   rec.CreatedAt,
	}
}
