package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsDevBuildVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", true},
		{"unknown", true},
		{"", true},
		{"0.1.0", false},
		{"v0.1.0", false},
		{"0.1.0-2-gabcdef", true},
		{"v0.1.0-2-gabcdef-dirty", true},
		{"0.1.0-rc1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got := IsDevBuildVersion(tt.version)
			if got != tt.want {
				t.Errorf(
					"IsDevBuildVersion(%q) = %v, want %v",
					tt.version, got, tt.want,
				)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   bool
	}{
		{"0.2.0", "0.1.0", true},
		{"0.1.0", "0.2.0", false},
		{"0.1.0", "0.1.0", false},
		{"1.0.0", "0.9.9", true},
		{"0.1.0-rc2", "0.1.0-rc1", true},
		{"0.1.0", "0.1.0-rc1", true},
	}
	for _, tt := range tests {
		name := tt.v1 + "_vs_" + tt.v2
		t.Run(name, func(t *testing.T) {
			got := isNewer(tt.v1, tt.v2)
			if got != tt.want {
				t.Errorf(
					"isNewer(%q, %q) = %v, want %v",
					tt.v1, tt.v2, got, tt.want,
				)
			}
		})
	}
}

func TestNormalizeSemver(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.1.0", "v0.1.0"},
		{"v0.1.0", "v0.1.0"},
		{"0.1.0-rc1", "v0.1.0-rc.1"},
		{"0.1.0-2-gabcdef", "v0.1.0"},
		{"0.1.0-2-gabcdef-dirty", "v0.1.0"},
		{"1.0.0-beta10", "v1.0.0-beta.10"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizeSemver(tt.input)
			if got != tt.want {
				t.Errorf(
					"normalizeSemver(%q) = %q, want %q",
					tt.input, got, tt.want,
				)
			}
		})
	}
}

func TestExtractChecksum(t *testing.T) {
	body := `abc123  some_other_file.tar.gz
deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef  studyview_0.1.0_linux_amd64.tar.gz
fff000  yet_another.zip`

	tests := []struct {
		filename string
		want     string
	}{
		{"studyview_0.1.0_linux_amd64.tar.gz", "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		{"nonexistent.tar.gz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := extractChecksum(body, tt.filename)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{10485760, "10.0 MB"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_bytes", tt.bytes), func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf(
					"FormatSize(%d) = %q, want %q",
					tt.bytes, got, tt.want,
				)
			}
		})
	}
}

func TestCacheRoundtrip(t *testing.T) {
	c := NewChecker(t.TempDir())
	c.saveCache("v1.2.3")

	cached, err := c.loadCache()
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if cached.Version != "v1.2.3" {
		t.Errorf("got version %q, want %q", cached.Version, "v1.2.3")
	}
	if time.Since(cached.CheckedAt) > time.Minute {
		t.Errorf("stale CheckedAt %v", cached.CheckedAt)
	}
}

// releaseServer serves a fixed latest-release document and
// counts hits.
func releaseServer(t *testing.T, release Release, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			*hits++
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(release); err != nil {
				t.Errorf("encoding release: %v", err)
			}
		},
	))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckFindsNewerRelease(t *testing.T) {
	assetName := platformAssetName("0.2.0")
	var hits int
	srv := releaseServer(t, Release{
		TagName: "v0.2.0",
		Body: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef" +
			"deadbeefdeadbeefdeadbeef  " + assetName,
		Assets: []Asset{{
			Name:               assetName,
			Size:               1024,
			BrowserDownloadURL: "https://example.com/" + assetName,
		}},
	}, &hits)

	c := NewChecker(t.TempDir())
	c.APIURL = srv.URL

	info, err := c.Check("0.1.0", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info == nil {
		t.Fatal("expected update info, got nil")
	}
	if info.LatestVersion != "v0.2.0" {
		t.Errorf("LatestVersion = %q, want v0.2.0", info.LatestVersion)
	}
	if info.DownloadURL != "https://example.com/"+assetName {
		t.Errorf("DownloadURL = %q", info.DownloadURL)
	}
	if info.Checksum == "" {
		t.Error("missing checksum from release body")
	}
	if info.IsDevBuild {
		t.Error("0.1.0 flagged as dev build")
	}
}

func TestCheckUpToDateUsesCache(t *testing.T) {
	var hits int
	srv := releaseServer(t, Release{TagName: "v0.1.0"}, &hits)

	c := NewChecker(t.TempDir())
	c.APIURL = srv.URL

	info, err := c.Check("0.1.0", false)
	if err != nil {
		t.Fatalf("first Check: %v", err)
	}
	if info != nil {
		t.Fatalf("up to date, got info %+v", info)
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}

	// Second check within the cache window never hits the API.
	if _, err := c.Check("0.1.0", false); err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if hits != 1 {
		t.Errorf("hits after cached check = %d, want 1", hits)
	}

	// Forcing bypasses the cache.
	if _, err := c.Check("0.1.0", true); err != nil {
		t.Fatalf("forced Check: %v", err)
	}
	if hits != 2 {
		t.Errorf("hits after forced check = %d, want 2", hits)
	}
}

func TestCheckDevBuildReportsLatest(t *testing.T) {
	var hits int
	srv := releaseServer(t, Release{TagName: "v0.1.0"}, &hits)

	c := NewChecker(t.TempDir())
	c.APIURL = srv.URL

	info, err := c.Check("dev", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info == nil {
		t.Fatal("dev build should always see the latest release")
	}
	if !info.IsDevBuild {
		t.Error("IsDevBuild = false, want true")
	}

	// The cached dev answer is marked as such.
	info, err = c.Check("dev", false)
	if err != nil {
		t.Fatalf("cached Check: %v", err)
	}
	if info == nil || !info.FromCache() {
		t.Errorf("cached dev check = %+v, want FromCache", info)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestCheckNoAssetForPlatform(t *testing.T) {
	var hits int
	srv := releaseServer(t, Release{
		TagName: "v0.9.0",
		Assets: []Asset{{
			Name: "studyview_0.9.0_plan9_mips.tar.gz",
		}},
	}, &hits)

	c := NewChecker(t.TempDir())
	c.APIURL = srv.URL

	info, err := c.Check("0.1.0", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info == nil {
		t.Fatal("expected version info even without an asset")
	}
	if info.DownloadURL != "" {
		t.Errorf("DownloadURL = %q, want empty", info.DownloadURL)
	}
}
