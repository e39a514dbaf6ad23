package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestQueryLimitBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 20},
		{"explicit", "limit=50", 50},
		{"zero falls back", "limit=0", 20},
		{"negative falls back", "limit=-5", 20},
		{"garbage falls back", "limit=lots", 20},
		{"capped", "limit=1000000", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tc.query, nil)
			if got := queryLimit(c); got != tc.want {
				t.Errorf("queryLimit(%q) = %d, want %d", tc.query, got, tc.want)
			}
		})
	}
}
