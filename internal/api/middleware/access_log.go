package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type accessLogEntry struct {
	Time       string `json:"time"`
	RequestID  string `json:"request_id"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Remote     string `json:"remote"`
}

// AccessLog writes one JSON line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := accessLogEntry{
			Time:       start.UTC().Format(time.RFC3339),
			RequestID:  GetRequestID(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			DurationMS: time.Since(start).Milliseconds(),
			Remote:     r.RemoteAddr,
		}
		line, err := json.Marshal(entry)
		if err != nil {
			log.Printf("access_log: marshaling entry: %v", err)
			return
		}
		log.Println(string(line))
	})
}
