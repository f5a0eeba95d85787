package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryboardMCP/internal/errors"
)

func TestRateLimiter_AllowAndReset(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, remaining, _ := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, remaining, _ = rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	ok, _, reset := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), reset)

	// 其他客户端不受影响
	ok, _, _ = rl.Allow("b")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Cleanup())
	ok, _, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestRateLimiter_Middleware(t *testing.T) {
	s := newTestServer(t, RouterOptions{RateLimiter: NewRateLimiter(1, time.Minute)})

	w := s.do(t, http.MethodPost, "/api/storyboards", sampleScreenplay("ep-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = s.do(t, http.MethodPost, "/api/storyboards", sampleScreenplay("ep-2"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ErrorRateLimited, decode(t, w).Error.Code)

	// 读取接口不限流
	w = s.do(t, http.MethodGet, "/api/storyboards", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w := s.do(t, http.MethodOptions, "/api/storyboards", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.NewValidationError("bad", nil), http.StatusBadRequest, ErrorValidation},
		{errors.NewNotFoundError("gone", nil), http.StatusNotFound, ErrorNotFound},
		{errors.NewUnsupportedPlatformError("sora"), http.StatusBadRequest, ErrorUnsupportedPlatform},
		{errors.NewAppError(errors.ErrorTypeTimeout, "slow", nil), http.StatusGatewayTimeout, ErrorTimeout},
		{errors.NewProcessingError("boom", nil), http.StatusInternalServerError, ErrorInternalError},
		{assert.AnError, http.StatusInternalServerError, ErrorInternalError},
		{errors.WrapError(errors.NewNotFoundError("gone", nil), "loading", errors.ErrorTypeError), http.StatusNotFound, ErrorNotFound},
	}
	for _, tc := range cases {
		status, code := statusForError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
