package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single quoted header",
			curlCmd:     `curl -H 'Authorization: Bearer token123' https://music.youtube.com`,
			wantHeaders: map[string]string{"Authorization": "Bearer token123"},
		},
		{
			name:        "double quoted header",
			curlCmd:     `curl -H "Authorization: Bearer token123" https://music.youtube.com`,
			wantHeaders: map[string]string{"Authorization": "Bearer token123"},
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'Content-Type: application/json' -H 'Authorization: Bearer token' https://music.youtube.com`,
			wantHeaders: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer token",
			},
		},
		{
			name:        "cookie via -b flag",
			curlCmd:     `curl -b 'session=abc123' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
		},
		{
			name:        "cookie header is split out",
			curlCmd:     `curl -H 'Cookie: session=abc123' -H 'Authorization: Bearer token' https://music.youtube.com`,
			wantHeaders: map[string]string{"Authorization": "Bearer token"},
			wantCookie:  "session=abc123",
		},
		{
			name:        "-b cookie wins over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline command with backslashes",
			curlCmd: `curl 'https://music.youtube.com/youtubei/v1/browse' \
  -H 'accept: */*' \
  -H 'authorization: SAPISIDHASH token_here' \
  -H 'cookie: VISITOR_INFO=xyz; CONSENT=YES' \
  --data-raw '{"context":{}}'`,
			wantHeaders: map[string]string{
				"accept":        "*/*",
				"authorization": "SAPISIDHASH token_here",
			},
			wantCookie: "VISITOR_INFO=xyz; CONSENT=YES",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://music.youtube.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand([]byte(tc.curlCmd))

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %d, want %d", len(result.Headers), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %q, want %q", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("parses file contents", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		curlCmd := `curl -H 'Authorization: Bearer token123' -H 'Content-Type: application/json' https://music.youtube.com`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if result.Headers["Authorization"] != "Bearer token123" {
			t.Errorf("Authorization = %q, want Bearer token123", result.Headers["Authorization"])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

func TestToHeadersRaw(t *testing.T) {
	t.Run("headers and cookie", func(t *testing.T) {
		headers := &CurlHeaders{
			Headers: map[string]string{"Authorization": "Bearer token"},
			Cookie:  "session=abc123",
		}

		got := headers.ToHeadersRaw()
		if !strings.Contains(got, "Authorization: Bearer token") {
			t.Error("missing Authorization line")
		}
		if !strings.Contains(got, "cookie: session=abc123") {
			t.Error("missing cookie line")
		}
	})

	t.Run("empty", func(t *testing.T) {
		headers := &CurlHeaders{Headers: map[string]string{}}
		if got := headers.ToHeadersRaw(); got != "" {
			t.Errorf("ToHeadersRaw() = %q, want empty", got)
		}
	})
}
