package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name      string
		requestID string
		traceID   string
		wantReq   string
		wantTrace string
	}{
		{name: "headers honored", requestID: "req-1", traceID: "trace-1", wantReq: "req-1", wantTrace: "trace-1"},
		{name: "trace falls back to request id", requestID: "req-2", wantReq: "req-2", wantTrace: "req-2"},
		{name: "oversized ids replaced", requestID: strings.Repeat("x", 200)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/x", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.requestID != "" {
				req.Header.Set(headerRequestID, tc.requestID)
			}
			if tc.traceID != "" {
				req.Header.Set(headerTraceID, tc.traceID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen == nil {
				t.Fatal("trace data not attached")
			}
			if tc.wantReq != "" && seen.RequestID != tc.wantReq {
				t.Fatalf("request id = %q, want %q", seen.RequestID, tc.wantReq)
			}
			if tc.wantTrace != "" && seen.TraceID != tc.wantTrace {
				t.Fatalf("trace id = %q, want %q", seen.TraceID, tc.wantTrace)
			}
			if len(seen.RequestID) > 128 || seen.RequestID == "" {
				t.Fatalf("bad request id %q", seen.RequestID)
			}
			if got := rec.Header().Get(headerRequestID); got != seen.RequestID {
				t.Fatalf("response header %q != %q", got, seen.RequestID)
			}
		})
	}
}
