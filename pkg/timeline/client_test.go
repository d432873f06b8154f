package timeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xdl/pkg/errors"
	"xdl/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient("", 30*time.Second, log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.headers)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())

	custom := NewClient("http://localhost:9999", 30*time.Second, log)
	assert.Equal(t, "http://localhost:9999", custom.BaseURL())
}

func TestSetAuthToken(t *testing.T) {
	client := NewClient("", 30*time.Second, logger.NewTestLogger())

	client.SetAuthToken("")
	assert.NotContains(t, client.headers, "X-Auth-Token")

	client.SetAuthToken("abc123")
	assert.Equal(t, "abc123", client.headers["X-Auth-Token"])
}

func TestCheckResponseStatus(t *testing.T) {
	client := NewClient("", 30*time.Second, logger.NewTestLogger())

	tests := []struct {
		name         string
		statusCode   int
		expectedType errors.ErrorType
	}{
		{
			name:       "200 OK",
			statusCode: http.StatusOK,
		},
		{
			name:         "401 Unauthorized",
			statusCode:   http.StatusUnauthorized,
			expectedType: errors.ErrorTypeAuth,
		},
		{
			name:         "403 Forbidden",
			statusCode:   http.StatusForbidden,
			expectedType: errors.ErrorTypeAuth,
		},
		{
			name:         "404 Not Found",
			statusCode:   http.StatusNotFound,
			expectedType: errors.ErrorTypeNotFound,
		},
		{
			name:         "429 Too Many Requests",
			statusCode:   http.StatusTooManyRequests,
			expectedType: errors.ErrorTypeRateLimit,
		},
		{
			name:         "500 Internal Server Error",
			statusCode:   http.StatusInternalServerError,
			expectedType: errors.ErrorTypeServerError,
		},
		{
			name:         "503 Service Unavailable",
			statusCode:   http.StatusServiceUnavailable,
			expectedType: errors.ErrorTypeServerError,
		},
		{
			name:         "400 Bad Request",
			statusCode:   http.StatusBadRequest,
			expectedType: errors.ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "http://example.com", nil)
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Request:    req,
			}

			err := client.checkResponseStatus(resp)
			if tt.expectedType == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				var berr *errors.Error
				assert.ErrorAs(t, err, &berr)
				assert.Equal(t, tt.expectedType, berr.Type)
				assert.Equal(t, tt.statusCode, berr.Code)
			}
		})
	}
}

func TestGetJSON(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient("", 30*time.Second, log)
	ctx := context.Background()

	type testData struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	}

	t.Run("successful JSON decode", func(t *testing.T) {
		expected := testData{Message: "test", Value: 42}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(expected)
		}))
		defer server.Close()

		var result testData
		err := client.GetJSON(ctx, server.URL, &result)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("invalid json"))
		}))
		defer server.Close()

		var result testData
		err := client.GetJSON(ctx, server.URL, &result)
		assert.Error(t, err)

		var berr *errors.Error
		assert.ErrorAs(t, err, &berr)
		assert.Equal(t, errors.ErrorTypeParsing, berr.Type)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		var result testData
		err := client.GetJSON(ctx, server.URL, &result)
		assert.Error(t, err)

		var berr *errors.Error
		assert.ErrorAs(t, err, &berr)
		assert.Equal(t, errors.ErrorTypeNotFound, berr.Type)
	})
}

func TestResolveUser(t *testing.T) {
	log := logger.NewTestLogger()
	ctx := context.Background()

	t.Run("successful resolve", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/users/testuser", r.URL.Path)
			json.NewEncoder(w).Encode(UserInfo{
				ID:            "123456",
				ScreenName:    "testuser",
				StatusesCount: 42,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, 30*time.Second, log)
		info, err := client.ResolveUser(ctx, "testuser")
		require.NoError(t, err)
		assert.Equal(t, "123456", info.ID)
		assert.Equal(t, "testuser", info.ScreenName)
	})

	t.Run("withheld account", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(UserInfo{
				ID:         "123456",
				ScreenName: "gonetoofar",
				Withheld:   true,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, 30*time.Second, log)
		info, err := client.ResolveUser(ctx, "gonetoofar")
		assert.Nil(t, info)
		assert.Error(t, err)

		var berr *errors.Error
		assert.ErrorAs(t, err, &berr)
		assert.Equal(t, errors.ErrorTypeNotFound, berr.Type)
	})

	t.Run("unknown user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, 30*time.Second, log)
		_, err := client.ResolveUser(ctx, "nobody")
		assert.Error(t, err)

		var berr *errors.Error
		assert.ErrorAs(t, err, &berr)
		assert.Equal(t, errors.ErrorTypeNotFound, berr.Type)
	})
}

func TestTimelinePage(t *testing.T) {
	log := logger.NewTestLogger()
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/testuser/timeline/media", r.URL.Path)

		page := Page{
			Posts: []Post{
				{
					ID:   "300",
					Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
					Media: []MediaItem{
						{URL: "https://cdn.example.com/a.jpg", Type: MediaTypeImage, Index: 1},
					},
				},
			},
			HasMore: false,
		}
		if r.URL.Query().Get("cursor") != "" {
			page = Page{HasMore: false}
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewClient(server.URL, 30*time.Second, log)

	page, err := client.TimelinePage(ctx, "testuser", KindMedia, "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "300", page.Posts[0].ID)
	assert.False(t, page.HasMore)

	page, err = client.TimelinePage(ctx, "testuser", KindMedia, "deep")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestContentLength(t *testing.T) {
	log := logger.NewTestLogger()
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HEAD", r.Method)
		w.Header().Set("Content-Length", "204800")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("", 30*time.Second, log)
	size, err := client.ContentLength(ctx, server.URL+"/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(204800), size)
}

func TestDownload(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient("", 30*time.Second, log)
	ctx := context.Background()

	t.Run("successful download", func(t *testing.T) {
		expectedData := []byte("fake image data")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.WriteHeader(http.StatusOK)
			w.Write(expectedData)
		}))
		defer server.Close()

		data, err := client.Download(ctx, server.URL+"/photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, expectedData, data)
	})

	t.Run("download error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		data, err := client.Download(ctx, server.URL+"/notfound.jpg")
		assert.Nil(t, data)
		assert.Error(t, err)

		var berr *errors.Error
		assert.ErrorAs(t, err, &berr)
		assert.Equal(t, errors.ErrorTypeNotFound, berr.Type)
	})
}
