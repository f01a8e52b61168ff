// Package update checks GitHub releases for a newer studyview
// build. It only reports what is available; installing the new
// binary is left to the user (or their package manager).
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultAPIURL    = "https://api.github.com/repos/studyview/studyview/releases/latest"
	cacheFileName    = "update_check.json"
	cacheDuration    = 1 * time.Hour
	devCacheDuration = 15 * time.Minute
)

// Release represents a GitHub release.
type Release struct {
	TagName string  `json:"tag_name"`
	Body    string  `json:"body"`
	Assets  []Asset `json:"assets"`
}

// Asset represents a release asset.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info describes an available update.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	DownloadURL    string
	AssetName      string
	Size           int64
	Checksum       string
	IsDevBuild     bool
	// fromCache marks results built from the cached check,
	// which record only the version string.
	fromCache bool
}

// FromCache reports whether the info came from the local check
// cache rather than a live API call.
func (i *Info) FromCache() bool {
	return i.fromCache
}

// Checker performs release checks against the GitHub API with a
// small on-disk cache so repeated invocations stay quiet.
type Checker struct {
	APIURL   string
	CacheDir string
	Client   *http.Client
}

// NewChecker returns a Checker caching under cacheDir.
func NewChecker(cacheDir string) *Checker {
	return &Checker{
		APIURL:   defaultAPIURL,
		CacheDir: cacheDir,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Check returns info about a newer release, or nil when the
// current version is up to date. force bypasses the cache.
// Dev builds always report the latest release so developers can
// see what is shipping.
func (c *Checker) Check(currentVersion string, force bool) (*Info, error) {
	cleanVersion := strings.TrimPrefix(currentVersion, "v")
	isDevBuild := IsDevBuildVersion(cleanVersion)

	if !force {
		if info, done := c.checkCache(currentVersion, cleanVersion, isDevBuild); done {
			return info, nil
		}
	}

	release, err := c.fetchLatestRelease()
	if err != nil {
		return nil, fmt.Errorf("checking for updates: %w", err)
	}
	c.saveCache(release.TagName)

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	if !isDevBuild && !isNewer(latestVersion, cleanVersion) {
		return nil, nil
	}

	info := &Info{
		CurrentVersion: currentVersion,
		LatestVersion:  release.TagName,
		IsDevBuild:     isDevBuild,
	}

	assetName := platformAssetName(latestVersion)
	asset, checksums := findAssets(release.Assets, assetName)
	if asset == nil {
		// Release exists but carries no binary for this
		// platform; still worth reporting the version.
		return info, nil
	}
	info.DownloadURL = asset.BrowserDownloadURL
	info.AssetName = asset.Name
	info.Size = asset.Size

	if checksums != nil {
		info.Checksum, _ = c.fetchChecksumFromFile(
			checksums.BrowserDownloadURL, assetName,
		)
	}
	if info.Checksum == "" {
		info.Checksum = extractChecksum(release.Body, assetName)
	}
	return info, nil
}

// platformAssetName is the archive name goreleaser produces for
// the running platform.
func platformAssetName(version string) string {
	ext := ".tar.gz"
	if runtime.GOOS == "windows" {
		ext = ".zip"
	}
	return fmt.Sprintf(
		"studyview_%s_%s_%s%s",
		version, runtime.GOOS, runtime.GOARCH, ext,
	)
}

// findAssets locates the platform archive and checksums file.
func findAssets(
	assets []Asset, assetName string,
) (asset *Asset, checksumsAsset *Asset) {
	for i := range assets {
		a := &assets[i]
		if a.Name == assetName {
			asset = a
		}
		if a.Name == "SHA256SUMS" || a.Name == "checksums.txt" {
			checksumsAsset = a
		}
	}
	return asset, checksumsAsset
}

func (c *Checker) fetchLatestRelease() (*Release, error) {
	req, err := http.NewRequest("GET", c.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "studyview-update")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Checker) fetchChecksumFromFile(
	url, assetName string,
) (string, error) {
	resp, err := c.Client.Get(url) //nolint:gosec
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching checksums: %s", resp.Status)
	}

	// 1 MiB is plenty for a checksums file.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return extractChecksum(string(body), assetName), nil
}

// extractChecksum scans SHA256SUMS-style text for the named
// asset's checksum.
func extractChecksum(body, assetName string) string {
	re := regexp.MustCompile(`(?i)[a-f0-9]{64}`)
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		fname := strings.TrimPrefix(fields[1], "*")
		if fname != assetName {
			continue
		}
		if match := re.FindString(fields[0]); match != "" {
			return strings.ToLower(match)
		}
	}
	return ""
}

// --- check cache ---

type cachedCheck struct {
	CheckedAt time.Time `json:"checked_at"`
	Version   string    `json:"version"`
}

func (c *Checker) loadCache() (*cachedCheck, error) {
	data, err := os.ReadFile(filepath.Join(c.CacheDir, cacheFileName))
	if err != nil {
		return nil, err
	}
	var cached cachedCheck
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *Checker) checkCache(
	currentVersion, cleanVersion string, isDevBuild bool,
) (*Info, bool) {
	cached, err := c.loadCache()
	if err != nil {
		return nil, false
	}

	cacheWindow := cacheDuration
	if isDevBuild {
		cacheWindow = devCacheDuration
	}
	if time.Since(cached.CheckedAt) >= cacheWindow {
		return nil, false
	}

	if isDevBuild {
		return &Info{
			CurrentVersion: currentVersion,
			LatestVersion:  cached.Version,
			IsDevBuild:     true,
			fromCache:      true,
		}, true
	}

	latestVersion := strings.TrimPrefix(cached.Version, "v")
	if !isNewer(latestVersion, cleanVersion) {
		return nil, true
	}
	// A newer version is cached but without asset metadata;
	// re-fetch for the full picture.
	return nil, false
}

func (c *Checker) saveCache(version string) {
	data, err := json.Marshal(cachedCheck{
		CheckedAt: time.Now(),
		Version:   version,
	})
	if err != nil {
		return
	}
	cachePath := filepath.Join(c.CacheDir, cacheFileName)
	_ = os.MkdirAll(filepath.Dir(cachePath), 0o755)
	_ = os.WriteFile(cachePath, data, 0o600)
}

// --- version comparison ---

func extractBaseSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	if len(v) == 0 || v[0] < '0' || v[0] > '9' {
		return ""
	}
	if !strings.Contains(v, ".") {
		return ""
	}
	if idx := strings.Index(v, "-"); idx > 0 {
		v = v[:idx]
	}
	return v
}

var gitDescribePattern = regexp.MustCompile(
	`-\d+-g[0-9a-f]+(-dirty)?$`,
)

// IsDevBuildVersion returns true if the version is a dev build.
func IsDevBuildVersion(v string) bool {
	v = strings.TrimPrefix(v, "v")
	if extractBaseSemver(v) == "" {
		return true
	}
	return gitDescribePattern.MatchString(v)
}

func isNewer(v1, v2 string) bool {
	base1 := extractBaseSemver(v1)
	base2 := extractBaseSemver(v2)
	if base1 == "" || base2 == "" {
		return false
	}
	return semver.Compare(normalizeSemver(v1), normalizeSemver(v2)) > 0
}

var prereleaseNumericPattern = regexp.MustCompile(
	`^([A-Za-z]+)(\d+)$`,
)

func normalizeSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	if gitDescribePattern.MatchString(v) {
		v = gitDescribePattern.ReplaceAllString(v, "")
	}
	if idx := strings.Index(v, "-"); idx > 0 {
		base := v[:idx]
		prerelease := normalizePrereleaseIdentifiers(v[idx+1:])
		v = base + "-" + prerelease
	}
	return "v" + v
}

func normalizePrereleaseIdentifiers(prerelease string) string {
	parts := strings.Split(prerelease, ".")
	var result []string
	for _, part := range parts {
		matches := prereleaseNumericPattern.FindStringSubmatch(part)
		if matches != nil {
			letters, digits := matches[1], matches[2]
			if len(digits) > 1 && digits[0] == '0' {
				result = append(result, part)
			} else {
				result = append(result, letters, digits)
			}
		} else {
			result = append(result, part)
		}
	}
	return strings.Join(result, ".")
}

// FormatSize formats bytes as a human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf(
		"%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp],
	)
}
