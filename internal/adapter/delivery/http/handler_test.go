package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type HandlersTestSuite struct {
	suite.Suite
	logger          *httplog.Logger
	linkUseCaseMock *mockLinkUseCase
	server          *httptest.Server
	e               *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.linkUseCaseMock = new(mockLinkUseCase)

	router := NewRouter(suite.logger, suite.linkUseCaseMock, []string{"http://localhost:3000"}, NewMetrics(prometheus.NewRegistry()))
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.linkUseCaseMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestHealthz() {
	suite.Run("success", func() {
		suite.e.GET("/healthz").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			IsEqual(map[string]any{"status": "ok"})
	})
}

func (suite *HandlersTestSuite) TestSwagger() {
	suite.Run("openapi document", func() {
		suite.e.GET("/docs/swagger.yml").
			Expect().
			Status(http.StatusOK).
			Body().Contains("/api/links")
	})
}

func (suite *HandlersTestSuite) TestCORS() {
	suite.Run("allowed origin", func() {
		suite.e.OPTIONS("/api/links").
			WithHeader("Origin", "http://localhost:3000").
			WithHeader("Access-Control-Request-Method", http.MethodPost).
			Expect().
			Header("Access-Control-Allow-Origin").IsEqual("http://localhost:3000")
	})

	suite.Run("disallowed origin", func() {
		suite.e.OPTIONS("/api/links").
			WithHeader("Origin", "https://evil.example").
			WithHeader("Access-Control-Request-Method", http.MethodPost).
			Expect().
			Header("Access-Control-Allow-Origin").IsEmpty()
	})
}

func (suite *HandlersTestSuite) TestCreateLink() {
	const path = "/api/links"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid URL provided")
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithBytes([]byte(`{"original_url":`)).
			WithHeader("Content-Type", "application/json").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid request body")
	})

	suite.Run("original url of wrong type", func() {
		suite.e.POST(path).
			WithBytes([]byte(`{"original_url":123}`)).
			WithHeader("Content-Type", "application/json").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid URL provided")
	})

	suite.Run("custom code of wrong type", func() {
		suite.e.POST(path).
			WithBytes([]byte(`{"original_url":"https://example.com","custom_code":123456}`)).
			WithHeader("Content-Type", "application/json").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Custom code must be 6-8 alphanumeric characters")
	})

	suite.Run("invalid url", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, "not-a-url", "").
			Once().
			Return(nil, fmt.Errorf("wrapped: %w", entity.ErrInvalidURL))

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "not-a-url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid URL provided")
	})

	suite.Run("invalid custom code", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, "https://example.com", "ab").
			Once().
			Return(nil, entity.ErrInvalidShortCode)

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "ab"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Custom code must be 6-8 alphanumeric characters")
	})

	suite.Run("short code exists", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, "https://example.com", "ABC123").
			Once().
			Return(nil, entity.ErrShortCodeExists)

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "ABC123"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object().
			HasValue("error", "Short code already exists")
	})

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, "https://example.com", "").
			Once().
			Return(nil, errors.New("connection refused"))

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError)

		resp.JSON().Object().IsEqual(map[string]any{"error": "Internal server error"})
		resp.Body().NotContains("connection refused")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, "https://example.com", "ABC123").
			Once().
			Return(&entity.Link{
				ID:          1,
				ShortCode:   "ABC123",
				OriginalURL: "https://example.com",
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com", "custom_code": "ABC123"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("id", 1)
		resp.HasValue("short_code", "ABC123")
		resp.HasValue("original_url", "https://example.com")
		resp.HasValue("clicks", 0)
		resp.Value("last_clicked").IsNull()
		resp.ContainsKey("created_at")
		resp.ContainsKey("updated_at")
	})
}

func (suite *HandlersTestSuite) TestListLinks() {
	const path = "/api/links"

	suite.Run("empty", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything).
			Once().
			Return([]*entity.Link{}, nil)

		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal server error")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything).
			Once().
			Return([]*entity.Link{
				{ID: 3, ShortCode: "cccccc"},
				{ID: 2, ShortCode: "bbbbbb"},
				{ID: 1, ShortCode: "aaaaaa"},
			}, nil)

		arr := suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		arr.Length().IsEqual(3)
		arr.Value(0).Object().HasValue("short_code", "cccccc")
		arr.Value(2).Object().HasValue("short_code", "aaaaaa")
	})
}

func (suite *HandlersTestSuite) TestGetLink() {
	const path = "/api/links/%s"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "Link not found")
	})

	suite.Run("success", func() {
		lastClicked := time.Now()

		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, "abc123").
			Once().
			Return(&entity.Link{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				LinkStats:   entity.LinkStats{Clicks: 7, LastClicked: &lastClicked},
			}, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("short_code", "abc123")
		resp.HasValue("clicks", 7)
		resp.Value("last_clicked").String().NotEmpty()
	})
}

func (suite *HandlersTestSuite) TestDeleteLink() {
	const path = "/api/links/%s"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("DeleteLink", mock.Anything, "abc123").
			Once().
			Return(entity.ErrLinkNotFound)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "Link not found")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("DeleteLink", mock.Anything, "abc123").
			Once().
			Return(nil)

		suite.e.DELETE(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			IsEqual(map[string]any{"message": "Link deleted successfully"})
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.e.GET("/abc123").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "Link not found")
	})

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET("/abc123").
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal server error")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ABC123").
			Once().
			Return(&entity.Link{ShortCode: "ABC123", OriginalURL: "https://example.com"}, nil)

		suite.e.GET("/ABC123").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")
	})

	suite.Run("exact paths win over the redirect rule", func() {
		suite.e.GET("/healthz").
			Expect().
			Status(http.StatusOK)

		suite.linkUseCaseMock.AssertNotCalled(suite.T(), "ResolveShortCode", mock.Anything, "healthz")
	})
}

func (suite *HandlersTestSuite) TestUnmatchedRequests() {
	suite.Run("not found", func() {
		for _, path := range []string{"/ABC123/", "/api/links/ABC123/stats", "/a/b/c"} {
			suite.e.GET(path).
				Expect().
				Status(http.StatusNotFound).
				JSON().Object().
				IsEqual(map[string]any{"error": "Not found"})
		}

		suite.linkUseCaseMock.AssertNotCalled(suite.T(), "ResolveShortCode", mock.Anything, mock.Anything)
	})

	suite.Run("method not allowed", func() {
		suite.e.POST("/ABC123").
			Expect().
			Status(http.StatusMethodNotAllowed).
			JSON().Object().
			IsEqual(map[string]any{"error": "Method not allowed"})

		suite.e.PUT("/api/links").
			Expect().
			Status(http.StatusMethodNotAllowed).
			JSON().Object().
			HasValue("error", "Method not allowed")
	})
}

func (suite *HandlersTestSuite) TestMetrics() {
	suite.Run("redirects and routes are counted", func() {
		suite.linkUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ABC123").
			Once().
			Return(&entity.Link{ShortCode: "ABC123", OriginalURL: "https://example.com"}, nil)
		suite.linkUseCaseMock.
			On("ResolveShortCode", mock.Anything, "nope42").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.e.GET("/ABC123").Expect().Status(http.StatusFound)
		suite.e.GET("/nope42").Expect().Status(http.StatusNotFound)

		body := suite.e.GET("/metrics").
			Expect().
			Status(http.StatusOK).
			Body()

		body.Contains(`link_redirects_total{result="found"} 1`)
		body.Contains(`link_redirects_total{result="not_found"} 1`)
		body.Contains(`http_requests_total{method="GET",route="/{shortCode}",status="302"} 1`)
		body.NotContains("ABC123")
	})
}

func (suite *HandlersTestSuite) TestRecoverer() {
	suite.Run("panic in use case", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, "abc123").
			Once().
			Panic("boom")

		suite.e.GET("/api/links/abc123").
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Internal server error")
	})
}

func TestReservedCodes(t *testing.T) {
	assert.ElementsMatch(t, []string{"healthz", "metrics"}, ReservedCodes())
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
