package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/auth"
	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
)

func TestHumanFormatterFormatList(t *testing.T) {
	formatter := &HumanFormatter{}
	nodes := []browser.Node{
		{Key: "ds/raw/", IsDir: true},
		{Key: "ds/scan-001.tiff", Size: 2048, LastModified: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, formatter.FormatList(&buf, "ds/", nodes))

	output := buf.String()
	assert.Contains(t, output, "raw/")
	assert.Contains(t, output, "scan-001.tiff")
	assert.Contains(t, output, "2.0 KiB")
	assert.Contains(t, output, "2026-03-01 10:00:00")
	assert.Contains(t, output, "1 file(s)")
}

func TestHumanFormatterFormatListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatList(&buf, "ds/", nil))
	assert.Contains(t, buf.String(), "No files found")
}

func TestJSONFormatterFormatList(t *testing.T) {
	nodes := []browser.Node{
		{Key: "ds/raw/", IsDir: true},
		{Key: "ds/scan-001.tiff", Size: 2048},
	}

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatList(&buf, "ds/", nodes))

	var output struct {
		Files []struct {
			Path      string `json:"path"`
			IsDir     bool   `json:"is_dir"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	require.Len(t, output.Files, 2)
	assert.Equal(t, "raw/", output.Files[0].Path)
	assert.True(t, output.Files[0].IsDir)
	assert.Equal(t, "scan-001.tiff", output.Files[1].Path)
	assert.Equal(t, int64(2048), output.Files[1].SizeBytes)
}

func TestHumanFormatterFormatDetails(t *testing.T) {
	d := &browser.Details{
		Info: hoss.FileInfo{
			Key:          "ds/scan-001.tiff",
			Size:         4096,
			LastModified: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			ETag:         "abc123",
		},
		Metadata: hoss.ObjectMetadata{"subject": "s03"},
		URI:      "hoss+hoss.example.com:default:ds/scan-001.tiff",
	}

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatDetails(&buf, d))

	output := buf.String()
	assert.Contains(t, output, "ds/scan-001.tiff")
	assert.Contains(t, output, "4.0 KiB")
	assert.Contains(t, output, "abc123")
	assert.Contains(t, output, "hoss+hoss.example.com:default:ds/scan-001.tiff")
	assert.Contains(t, output, "subject: s03")
}

func TestHumanFormatterFormatIdentity(t *testing.T) {
	id := &auth.Identity{
		Email:      "kabir@example.com",
		GivenName:  "Kabir",
		FamilyName: "Rao",
		Role:       auth.RolePrivileged,
		Groups:     []string{"imaging", "public"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatIdentity(&buf, id))

	output := buf.String()
	assert.Contains(t, output, "kabir@example.com")
	assert.Contains(t, output, "Kabir Rao")
	assert.Contains(t, output, "privileged")
	assert.Contains(t, output, "imaging, public")
}

func TestHumanFormatterFormatDeleteQuiet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{Quiet: true}).FormatDelete(&buf, []string{"ds/a.txt"}))
	assert.Empty(t, buf.String())
}

func TestJSONFormatterFormatError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatError(&buf, errors.New("boom")))

	var output struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "boom", output.Error)
}

func TestHumanFormatterFormatSearchEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatSearch(&buf, nil))
	assert.Contains(t, buf.String(), "No matching files")
}

func TestHumanFormatterFormatProfileList(t *testing.T) {
	profiles := []config.Profile{
		{Name: "prod", Server: "https://hoss.example.com", Namespace: "science", Dataset: "imaging"},
		{Name: "local", Server: "http://localhost:8080"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatProfileList(&buf, profiles, "prod"))

	output := buf.String()
	assert.Contains(t, output, "* prod")
	assert.Contains(t, output, "https://hoss.example.com")
	assert.Contains(t, output, "  local")
}

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]string{"subject=s03", "stage=raw"})
	require.NoError(t, err)
	assert.Equal(t, hoss.ObjectMetadata{"subject": "s03", "stage": "raw"}, meta)

	meta, err = parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = parseMetadata([]string{"no-separator"})
	require.Error(t, err)

	_, err = parseMetadata([]string{"=value"})
	require.Error(t, err)
}

func TestParseSearchTime(t *testing.T) {
	got, err := parseSearchTime("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSearchTime("2026-03-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), got)

	got, err = parseSearchTime("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseSearchTime("yesterday")
	require.Error(t, err)
}

func TestDatasetKey(t *testing.T) {
	b := browser.New(nil, "hoss.example.com", "default", "ds")

	assert.Equal(t, "ds/raw/scan.tiff", datasetKey(b, "raw/scan.tiff"))
	assert.Equal(t, "ds/raw/scan.tiff", datasetKey(b, "/raw/scan.tiff"))
	assert.Equal(t, "ds/raw/", datasetKey(b, "raw/"))
	assert.Equal(t, "ds/", datasetKey(b, ""))
	assert.Equal(t, "ds/", datasetKey(b, "/"))
}

func TestOriginHost(t *testing.T) {
	assert.Equal(t, "hoss.example.com", originHost("https://hoss.example.com"))
	assert.Equal(t, "localhost:8080", originHost("http://localhost:8080"))
	assert.Equal(t, "hoss.example.com", originHost("hoss.example.com"))
}
