package controllers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"legalreview/controllers"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

var _ = Describe("Pagination", func() {
	p := controllers.Pagination{DefaultLimit: 50, MaxLimit: 100}

	It("uses the defaults without query parameters", func() {
		c, _ := testContext("/items")

		skip, limit, ok := p.Parse(c)
		Expect(ok).To(BeTrue())
		Expect(skip).To(Equal(0))
		Expect(limit).To(Equal(50))
	})

	It("caps limit at the maximum", func() {
		c, _ := testContext("/items?skip=20&limit=500")

		skip, limit, ok := p.Parse(c)
		Expect(ok).To(BeTrue())
		Expect(skip).To(Equal(20))
		Expect(limit).To(Equal(100))
	})

	DescribeTable("rejects invalid values",
		func(target string) {
			c, w := testContext(target)

			_, _, ok := p.Parse(c)
			Expect(ok).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		},
		Entry("negative skip", "/items?skip=-1"),
		Entry("zero limit", "/items?limit=0"),
		Entry("non numeric limit", "/items?limit=ten"),
	)
})

var _ = Describe("Middleware", func() {
	var router *gin.Engine

	BeforeEach(func() {
		router = gin.New()
	})

	Describe("CORS", func() {
		BeforeEach(func() {
			router.Use(controllers.CORS([]string{"http://localhost:3004/"}))
			router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		})

		It("answers preflight requests from allowed origins", func() {
			req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
			req.Header.Set("Origin", "http://localhost:3004")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3004"))
			Expect(w.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("X-Reviewer-ID"))
		})

		It("does not echo unknown origins", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", "http://evil.example")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("ReviewerID", func() {
		It("exposes the reviewer header to handlers", func() {
			var seen *string
			router.GET("/who", controllers.ReviewerID, func(c *gin.Context) {
				seen = controllers.CurrentReviewer(c)
			})

			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			req.Header.Set("X-Reviewer-ID", " alice ")
			router.ServeHTTP(httptest.NewRecorder(), req)

			Expect(seen).NotTo(BeNil())
			Expect(*seen).To(Equal("alice"))
		})

		It("is nil without the header", func() {
			seen := new(string)
			router.GET("/who", controllers.ReviewerID, func(c *gin.Context) {
				seen = controllers.CurrentReviewer(c)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/who", nil))
			Expect(seen).To(BeNil())
		})
	})

	Describe("internal errors", func() {
		decode := func(w *httptest.ResponseRecorder) map[string]string {
			var body map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			return body
		}

		It("hides error details outside debug mode", func() {
			router.Use(controllers.ErrorDetails(false))
			router.GET("/fail", func(c *gin.Context) {
				controllers.RespondInternalErr(c, errors.New("connection refused"))
			})
			w := httptest.NewRecorder()

			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			body := decode(w)
			Expect(body["detail"]).To(Equal("Internal server error"))
			Expect(body["error"]).To(Equal("An error occurred"))
		})

		It("turns panics into a 500 with details in debug mode", func() {
			router.Use(controllers.ErrorDetails(true), controllers.Recovery(zap.NewNop().Sugar()))
			router.GET("/panic", func(c *gin.Context) { panic("boom") })
			w := httptest.NewRecorder()

			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)["error"]).To(Equal("boom"))
		})
	})
})
