// Utilities for parsing cURL commands exported from a browser session,
// used to authenticate the YouTube Music proxy.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderFlag = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieFlag = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts -H headers and the cookie from a cURL command.
//
// The cookie comes from the -b flag when present, falling back to a
// "Cookie:" header. Cookie headers never land in the Headers map.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	result := &CurlHeaders{Headers: make(map[string]string)}

	for _, match := range curlHeaderFlag.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := splitHeaderLine(firstGroup(match))
		if !ok {
			continue
		}
		if strings.EqualFold(key, "cookie") {
			if result.Cookie == "" {
				result.Cookie = value
			}
		} else {
			result.Headers[key] = value
		}
	}

	if match := curlCookieFlag.FindStringSubmatch(cmd); match != nil {
		result.Cookie = firstGroup(match)
	}

	if len(result.Headers) == 0 && result.Cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return result, nil
}

// firstGroup returns whichever capture group matched, single or double quoted.
func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

func splitHeaderLine(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// ToHeadersRaw renders the headers in the newline-separated "Key: Value"
// form the ytmusicapi proxy expects.
func (c *CurlHeaders) ToHeadersRaw() string {
	var lines []string

	for key, value := range c.Headers {
		lines = append(lines, fmt.Sprintf("%s: %s", key, value))
	}

	if c.Cookie != "" {
		lines = append(lines, fmt.Sprintf("cookie: %s", c.Cookie))
	}

	return strings.Join(lines, "\n")
}
