package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/unicode/norm"

	"cinder/cfg"
	"cinder/pkg/domain"
	"cinder/svc/lim"
	"cinder/svc/note"
	"cinder/svc/util"
)

type Hdl struct {
	notes *note.Service
	cfg   *cfg.Cfg
}

type CreateReq struct {
	Contents   string `json:"contents"`
	Meta       string `json:"meta,omitempty"`
	Views      *int   `json:"views,omitempty"`
	Expiration *int   `json:"expiration,omitempty"`
}
type CreateResp struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}
type ConsumeResp struct {
	Contents       string `json:"contents"`
	Meta           string `json:"meta,omitempty"`
	RemainingViews *int   `json:"remaining_views,omitempty"`
}
type PeekResp struct {
	Meta string `json:"meta"`
}
type StatusResp struct {
	Version         string `json:"version"`
	MaxSize         int64  `json:"max_size"`
	MaxMetaSize     int64  `json:"max_meta_size"`
	MaxViews        int    `json:"max_views"`
	MaxExpiration   int    `json:"max_expiration"`
	RateLimitCreate int    `json:"rate_limit_create"`
	RateLimitRead   int    `json:"rate_limit_read"`
}

func (h *Hdl) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warn().
			Str("content_type", contentType).
			Str("request_id", requestID).
			Msg("invalid Content-Type header")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "expected Content-Type: application/json",
			"request_id": requestID,
		})
		return
	}

	// JSON quoting inflates the payload; allow headroom over the note
	// bound and let the policy enforce the exact limit.
	limit := h.cfg.SizeLimitBytes + h.cfg.MetaLimitBytes + 64*1024
	if clHeader := r.Header.Get("Content-Length"); clHeader != "" {
		cl, err := strconv.ParseInt(clHeader, 10, 64)
		if err != nil || cl < 0 {
			log.Warn().Str("content_length", clHeader).Msg("invalid Content-Length")
			writeErr(w, domain.ErrInvalidRequest, requestID)
			return
		}
		if cl > limit {
			log.Warn().Int64("content_length", cl).Msg("Content-Length exceeds maximum")
			writeErr(w, domain.ErrNoteTooLarge, requestID)
			return
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var req CreateReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("invalid request")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if req.Contents == "" {
		log.Warn().Msg("empty contents")
		writeErr(w, domain.ErrContentRequired, requestID)
		return
	}

	ttl := h.cfg.MaxExpiration
	if req.Expiration != nil {
		// Requested in minutes, as the browser sends it.
		ttl = time.Duration(*req.Expiration) * time.Minute
	}

	clientID := lim.GetRealIP(r, h.cfg.TrustedProxies)
	params := domain.CreateParams{
		Ciphertext: []byte(req.Contents),
		Meta:       sanitizeMeta(req.Meta),
		Views:      req.Views,
		TTL:        ttl,
	}
	n, err := h.notes.CreateNote(r.Context(), clientID, params)
	if err != nil {
		if domain.IsValidation(err) || errors.Is(err, domain.ErrRateLimited) {
			writeErr(w, err, requestID)
			return
		}
		log.Error().Err(err).Msg("failed to create note")
		writeErr(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateResp{ID: n.ID, ExpiresAt: n.ExpiresAt})
}

// ConsumeNote reads a note and spends one view; the terminal view deletes
// it. Routed as DELETE because a successful read may destroy the resource.
func (h *Hdl) ConsumeNote(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	clientID := lim.GetRealIP(r, h.cfg.TrustedProxies)
	n, err := h.notes.ReadNote(r.Context(), clientID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			log.Info().Str("note_id", util.RedactID(id)).Msg("consume of unknown note")
		} else {
			log.Warn().Err(err).Str("note_id", util.RedactID(id)).Msg("consume failed")
		}
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(ConsumeResp{
		Contents:       string(n.Ciphertext),
		Meta:           n.Meta,
		RemainingViews: n.RemainingViews,
	})
}

// PeekNote returns note metadata without consuming a view.
func (h *Hdl) PeekNote(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	clientID := lim.GetRealIP(r, h.cfg.TrustedProxies)
	meta, err := h.notes.PeekNote(r.Context(), clientID, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNoteNotFound) {
			log.Warn().Err(err).Str("note_id", util.RedactID(id)).Msg("peek failed")
		}
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(PeekResp{Meta: meta})
}

func (h *Hdl) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResp{
		Version:         h.cfg.Version,
		MaxSize:         h.cfg.SizeLimitBytes,
		MaxMetaSize:     h.cfg.MetaLimitBytes,
		MaxViews:        h.cfg.MaxViews,
		MaxExpiration:   int(h.cfg.MaxExpiration / time.Minute),
		RateLimitCreate: h.cfg.RateLimit.Create,
		RateLimitRead:   h.cfg.RateLimit.Read,
	})
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	w.WriteHeader(statusCode)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		errorMsg = "internal server error"
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}

// sanitizeMeta normalizes the plaintext meta blob. Ciphertext is never
// touched: the store's contract is to hand it back byte for byte.
func sanitizeMeta(s string) string {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
