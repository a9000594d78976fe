package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func queryFor(t *testing.T, rawQuery string) Query {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Query
	}{
		{"defaults", "", Query{Page: 1, Size: 20}},
		{"explicit", "page=3&size=50", Query{Page: 3, Size: 50}},
		{"zero page clamped", "page=0", Query{Page: 1, Size: 20}},
		{"negative size clamped", "size=-1", Query{Page: 1, Size: 20}},
		{"size capped", "size=9999", Query{Page: 1, Size: 200}},
		{"garbage falls back", "page=abc&size=xyz", Query{Page: 1, Size: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryFor(t, tt.query); got != tt.want {
				t.Errorf("FromContext(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}
