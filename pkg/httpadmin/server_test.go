package httpadmin

import (
	"net/http"
	"net/http/httptest"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewServer", func() {
	It("reports liveness on /healthz without any dependencies configured", func() {
		server := NewServer(Dependencies{}, logr.Discard())

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"ok"`))
	})

	It("reports readiness with an empty component map when no dependencies are configured", func() {
		server := NewServer(Dependencies{}, logr.Discard())

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"ready"`))
	})

	It("serves Prometheus metrics", func() {
		server := NewServer(Dependencies{}, logr.Discard())

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
