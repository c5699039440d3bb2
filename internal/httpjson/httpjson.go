// Package httpjson holds the JSON request/response helpers shared by the
// HTTP handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ms-guests/internal/apperr"
	"ms-guests/internal/logger"
)

const maxBodyBytes = 1 << 20

type ErrorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Send writes data as JSON with the given status.
func Send(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Error maps err onto its status and a caller-safe message. Internal errors
// are logged in full and answered generically.
func Error(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		log.Debug("API", fmt.Sprintf("%s: %v", op, err))
	}
	Send(w, status, ErrorBody{Message: apperr.PublicMessage(err), Field: apperr.FieldOf(err)})
}

// Decode reads a JSON body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("", "Invalid request body: %v", err)
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "Invalid %s", name)
	}
	return id, nil
}

// AccessLog logs method, path, status and duration of every request.
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), time.Since(start).String())
		})
	}
}
