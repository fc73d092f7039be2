package http

import (
	"bufio"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// LoadCookieFile parses a Netscape-format cookie file and installs its
// entries into the jar, keyed by each cookie's domain. Missing files and
// malformed lines are skipped silently; exported browser cookie files are
// routinely full of noise.
func LoadCookieFile(jar http.CookieJar, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	perDomain := make(map[string][]*http.Cookie)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}
		domain := strings.TrimPrefix(parts[0], ".")
		name, value := parts[5], parts[6]
		if domain == "" || name == "" {
			continue
		}
		perDomain[domain] = append(perDomain[domain], &http.Cookie{Name: name, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for domain, cookies := range perDomain {
		u, err := url.Parse("https://" + domain + "/")
		if err != nil {
			continue
		}
		jar.SetCookies(u, cookies)
	}
	return nil
}
