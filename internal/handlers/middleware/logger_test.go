package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "info", msg: msg, args: args})
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "error", msg: msg, args: args})
}

func TestLoggerMiddleware(t *testing.T) {
	serve := func(status int, body string) *recordingLogger {
		l := &recordingLogger{}
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, err := w.Write([]byte(body))
			require.NoError(t, err, "should write response")
		})

		w := httptest.NewRecorder()
		LoggerMiddleware(l)(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.Equal(t, status, w.Code)
		require.Equal(t, body, w.Body.String())
		return l
	}

	t.Run("log request fields", func(t *testing.T) {
		l := serve(http.StatusTeapot, "hi")

		require.Len(t, l.entries, 1, "logger should be called once")
		entry := l.entries[0]
		require.Equal(t, "info", entry.level)
		require.Equal(t, "got HTTP request", entry.msg, "logger should log 'got HTTP request'")

		args := entry.args
		require.Len(t, args, 10, "logger should log 10 fields")
		require.Equal(t, "method", args[0])
		require.Equal(t, "GET", args[1])
		require.Equal(t, "uri", args[2])
		require.Equal(t, "/test", args[3])
		require.Equal(t, "duration", args[4])
		require.NotNil(t, args[5], "duration should not be empty")
		require.Equal(t, "status", args[6])
		require.Equal(t, http.StatusTeapot, args[7])
		require.Equal(t, "size", args[8])
		require.Equal(t, 2, args[9], "size should be 2 (length of 'hi')")
	})

	t.Run("server error logged as error", func(t *testing.T) {
		l := serve(http.StatusInternalServerError, "oops")

		require.Len(t, l.entries, 1)
		require.Equal(t, "error", l.entries[0].level)
	})
}
