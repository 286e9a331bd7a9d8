// Package updater checks GitHub for a newer release.
package updater

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const releaseURL = "https://api.github.com/repos/kestrelui/canopy/releases/latest"

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdates queries GitHub for the latest release and compares it
// against current. It returns the newer tag and its release page, or
// empty strings when current is up to date.
func CheckForUpdates(current string) (string, string, error) {
	// A short timeout so startup is never held hostage by the network.
	client := http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(releaseURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", "", err
	}

	if compareVersions(rel.TagName, current) > 0 {
		return rel.TagName, rel.HTMLURL, nil
	}
	return "", "", nil
}

// compareVersions orders two dotted version strings, ignoring a leading
// "v". Numeric segments compare numerically so v0.10.0 > v0.2.0;
// missing segments count as zero.
func compareVersions(v1, v2 string) int {
	s1 := strings.Split(strings.TrimPrefix(v1, "v"), ".")
	s2 := strings.Split(strings.TrimPrefix(v2, "v"), ".")
	for i := 0; i < len(s1) || i < len(s2); i++ {
		a, b := 0, 0
		if i < len(s1) {
			a, _ = strconv.Atoi(s1[i])
		}
		if i < len(s2) {
			b, _ = strconv.Atoi(s2[i])
		}
		if a != b {
			if a > b {
				return 1
			}
			return -1
		}
	}
	return 0
}
