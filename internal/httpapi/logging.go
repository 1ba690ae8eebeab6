package httpapi

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, the HTTP layer stays quiet.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logRequestStart(r *http.Request, msg, prompt string) {
	if zlog == nil {
		return
	}
	z := zlog.Info().Str("path", r.URL.Path)
	if prompt != "" {
		z = z.Str("prompt", truncate(prompt, 80))
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(msg)
}

func logRequestEnd(r *http.Request, msg string, status int, dur time.Duration, err error) {
	if zlog == nil {
		return
	}
	z := zlog.Info().Str("path", r.URL.Path).Int("status", status).Dur("dur", dur)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg(msg)
}

// truncate caps s at n runes; prompts are frequently CJK, so a byte cut
// would tear a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
