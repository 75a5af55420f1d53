package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format": {
			format:    "foo",
			level:     LevelInfo,
			expectErr: true,
		},
		"invalid level": {
			format:    FormatJSON,
			level:     "foo",
			expectErr: true,
		},
		"valid json": {
			format: FormatJSON,
			level:  LevelInfo,
		},
		"valid plain": {
			format: FormatPlain,
			level:  LevelDebug,
		},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			_, err := NewLogger(tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(&buf, FormatJSON, LevelError)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Error().Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "shown", entry["message"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(&buf, FormatJSON, LevelInfo)
	require.NoError(t, err)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hi"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/land/1", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/orders/land/1", entry["path"])
	require.Equal(t, float64(http.StatusTeapot), entry["status"])
	require.Equal(t, float64(2), entry["bytes"])
}
