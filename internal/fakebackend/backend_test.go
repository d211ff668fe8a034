package fakebackend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) (*Backend, *Member) {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b := New(WithClock(func() time.Time { return now }), WithSecret("test-secret"))
	member, err := b.AddMember("Ann", "a@b.com", "x1!", RoleMember)
	require.NoError(t, err)
	return b, member
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("x1!")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("x1!", hash))
	require.False(t, CheckPasswordHash("x2!", hash))
}

func TestTokens(t *testing.T) {
	b, member := setupTestFixture(t)

	token, err := b.tokens.CreateAccessToken(member)
	require.NoError(t, err)

	subject, jti, err := b.tokens.Validate(token)
	require.NoError(t, err)
	require.Equal(t, member.ID, subject)
	require.NotEmpty(t, jti)

	b.tokens.Revoke(jti)
	_, _, err = b.tokens.Validate(token)
	require.ErrorIs(t, err, errTokenRevoked)

	fresh, err := b.tokens.CreateAccessToken(member)
	require.NoError(t, err)
	b.ExpireSessions()
	_, _, err = b.tokens.Validate(fresh)
	require.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	b, member := setupTestFixture(t)
	token, err := b.tokens.CreateAccessToken(member)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			b.Handler().ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	b, _ := setupTestFixture(t)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page := func(query string) []int {
		return paginate(httptest.NewRequest(http.MethodGet, "/x?"+query, nil), items)
	}
	require.Equal(t, items, page(""))
	require.Equal(t, []int{1, 2}, page("per_page=2"))
	require.Equal(t, []int{5}, page("page=3&per_page=2"))
	require.Empty(t, page("page=4&per_page=2"))
}

func TestSlotOverlap(t *testing.T) {
	errs := validationErrors{}
	a := parseSlot("2026-03-11", "10:00", "12:00", errs)
	b := parseSlot("2026-03-11", "12:00", "13:00", errs)
	c := parseSlot("2026-03-11", "11:59", "12:30", errs)
	require.Empty(t, errs)
	require.False(t, a.overlaps(b))
	require.True(t, a.overlaps(c))

	parseSlot("2026-13-01", "9", "08:00", errs)
	require.Contains(t, errs, "date")
	require.Contains(t, errs, "start_time")
}
