package httpadmin

import (
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CORSFromEnvironment", func() {
	var testHandler http.Handler

	BeforeEach(func() {
		testHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	AfterEach(func() {
		_ = os.Unsetenv("CORS_ALLOWED_ORIGINS")
	})

	DescribeTable("authorizes or denies cross-origin requests per the configured whitelist",
		func(configuredOrigins, requestOrigin string, shouldAuthorize bool) {
			_ = os.Setenv("CORS_ALLOWED_ORIGINS", configuredOrigins)
			handler := CORSFromEnvironment()(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", requestOrigin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			allow := rec.Header().Get("Access-Control-Allow-Origin")
			if shouldAuthorize {
				Expect(allow).To(SatisfyAny(Equal(requestOrigin), Equal("*")))
			} else {
				Expect(allow).NotTo(Equal(requestOrigin))
			}
		},
		Entry("exact match from whitelist", "https://ops.example.com", "https://ops.example.com", true),
		Entry("origin not in whitelist", "https://ops.example.com", "https://malicious.example.com", false),
		Entry("wildcard authorizes any origin", "*", "https://anywhere.example.com", true),
	)
})
