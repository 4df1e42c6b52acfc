package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
)

func TestFail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", service.ErrMovieNotFound, http.StatusNotFound, "MOVIE_NOT_FOUND"},
		{"wrapped conflict", fmt.Errorf("vote: %w", service.ErrAlreadyVoted), http.StatusConflict, "ALREADY_VOTED"},
		{"upstream", service.ErrUpstream, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"plain error", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			fail(c, tt.err)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body struct {
				Code string `json:"code"`
				Msg  string `json:"msg"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode %q: %v", w.Body.String(), err)
			}
			if body.Code != tt.wantCode || body.Msg == "" {
				t.Fatalf("body = %+v, want code %s", body, tt.wantCode)
			}
			if tt.wantCode == "INTERNAL" && body.Msg != "internal server error" {
				t.Fatalf("internal detail leaked: %q", body.Msg)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"page=3", 3},
		{"page=x", 7},
		{"page=-2", -2},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := queryInt(c, "page", 7); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
