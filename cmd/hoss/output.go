package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/auth"
	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
)

const timeLayout = "2006-01-02 15:04:05"

// Formatter formats command results for output.
type Formatter interface {
	FormatList(w io.Writer, root string, nodes []browser.Node) error
	FormatUpload(w io.Writer, batch *browser.Batch) error
	FormatDownload(w io.Writer, remote, local string, size int64) error
	FormatDelete(w io.Writer, keys []string) error
	FormatDetails(w io.Writer, d *browser.Details) error
	FormatSearch(w io.Writer, rows []hoss.SearchRow) error
	FormatIdentity(w io.Writer, id *auth.Identity) error
	FormatStrings(w io.Writer, label string, values []string) error
	FormatProfileList(w io.Writer, profiles []config.Profile, defaultName string) error
	FormatProfileShow(w io.Writer, p config.Profile, isDefault bool) error
	FormatError(w io.Writer, err error) error
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatList renders one level of the dataset tree as a table.
func (f *HumanFormatter) FormatList(w io.Writer, root string, nodes []browser.Node) error {
	if len(nodes) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	maxPathLen := 4 // "NAME"
	for i := range nodes {
		if n := len(displayPath(root, &nodes[i])); n > maxPathLen {
			maxPathLen = n
		}
	}
	if maxPathLen > 60 {
		maxPathLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, "NAME", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxPathLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var files int
	var total int64
	for i := range nodes {
		node := &nodes[i]
		path := displayPath(root, node)
		if len(path) > maxPathLen {
			path = path[:maxPathLen-3] + "..."
		}

		size := "-"
		modified := ""
		if !node.IsDir {
			files++
			total += node.Size
			size = humanize.IBytes(uint64(node.Size))
			modified = node.LastModified.Format(timeLayout)
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, path, size, modified)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", files, humanize.IBytes(uint64(total)))
	return nil
}

// FormatUpload summarizes a transferred batch.
func (f *HumanFormatter) FormatUpload(w io.Writer, batch *browser.Batch) error {
	if f.Quiet {
		return nil
	}
	for i := range batch.Entries {
		e := &batch.Entries[i]
		_, _ = fmt.Fprintf(w, "Uploaded: %s%s (%s)\n", batch.TargetPrefix, e.Path, humanize.IBytes(uint64(e.Size)))
	}
	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(batch.Entries), humanize.IBytes(uint64(batch.TotalSize())))
	return nil
}

// FormatDownload reports one finished download.
func (f *HumanFormatter) FormatDownload(w io.Writer, remote, local string, size int64) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", remote, local, humanize.IBytes(uint64(size)))
	return nil
}

// FormatDelete lists removed keys.
func (f *HumanFormatter) FormatDelete(w io.Writer, keys []string) error {
	if f.Quiet {
		return nil
	}
	for _, key := range keys {
		_, _ = fmt.Fprintf(w, "Deleted: %s\n", key)
	}
	return nil
}

// FormatDetails renders the focused-file view.
func (f *HumanFormatter) FormatDetails(w io.Writer, d *browser.Details) error {
	_, _ = fmt.Fprintf(w, "Key:       %s\n", d.Info.Key)
	_, _ = fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(uint64(d.Info.Size)))
	_, _ = fmt.Fprintf(w, "Modified:  %s\n", d.Info.LastModified.Format(timeLayout))
	if d.Info.ETag != "" {
		_, _ = fmt.Fprintf(w, "ETag:      %s\n", d.Info.ETag)
	}
	_, _ = fmt.Fprintf(w, "URI:       %s\n", d.URI)

	if len(d.Metadata) > 0 {
		_, _ = fmt.Fprintln(w, "Metadata:")
		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", k, d.Metadata[k])
		}
	}
	return nil
}

// FormatSearch renders metadata search results.
func (f *HumanFormatter) FormatSearch(w io.Writer, rows []hoss.SearchRow) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No matching files")
		return nil
	}

	maxPathLen := 4 // "PATH"
	for i := range rows {
		if len(rows[i].FilePath) > maxPathLen {
			maxPathLen = len(rows[i].FilePath)
		}
	}
	if maxPathLen > 60 {
		maxPathLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, "PATH", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxPathLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range rows {
		row := &rows[i]
		path := row.FilePath
		if len(path) > maxPathLen {
			path = path[:maxPathLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n",
			maxPathLen,
			path,
			humanize.IBytes(uint64(row.SizeBytes)),
			row.LastModifiedDate.Format(timeLayout),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d matching file(s)\n", len(rows))
	return nil
}

// FormatIdentity renders the logged-in user.
func (f *HumanFormatter) FormatIdentity(w io.Writer, id *auth.Identity) error {
	_, _ = fmt.Fprintf(w, "Email:    %s\n", id.Email)
	if name := strings.TrimSpace(id.GivenName + " " + id.FamilyName); name != "" {
		_, _ = fmt.Fprintf(w, "Name:     %s\n", name)
	}
	if id.Nickname != "" {
		_, _ = fmt.Fprintf(w, "Nickname: %s\n", id.Nickname)
	}
	_, _ = fmt.Fprintf(w, "Role:     %s\n", id.Role)
	if len(id.Groups) > 0 {
		_, _ = fmt.Fprintf(w, "Groups:   %s\n", strings.Join(id.Groups, ", "))
	}
	if !id.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(w, "Expires:  %s\n", id.ExpiresAt.Local().Format(timeLayout))
	}
	return nil
}

// FormatStrings renders a flat completion list.
func (f *HumanFormatter) FormatStrings(w io.Writer, label string, values []string) error {
	if len(values) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found\n", label)
		return nil
	}
	for _, v := range values {
		_, _ = fmt.Fprintln(w, v)
	}
	return nil
}

// FormatProfileList renders the saved profiles, marking the default with an
// asterisk.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []config.Profile, defaultName string) error {
	maxNameLen := 4   // "NAME"
	maxServerLen := 6 // "SERVER"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Server) > maxServerLen {
			maxServerLen = len(profiles[i].Server)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxServerLen > 50 {
		maxServerLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %-12s  %s\n", maxNameLen, "NAME", maxServerLen, "SERVER", "NAMESPACE", "DATASET")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		strings.Repeat("-", maxNameLen), strings.Repeat("-", maxServerLen), strings.Repeat("-", 12), strings.Repeat("-", 12))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		server := p.Server
		if len(server) > maxServerLen {
			server = server[:maxServerLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %-12s  %s\n", marker, maxNameLen, name, maxServerLen, server, p.Namespace, p.Dataset)
	}
	return nil
}

// FormatProfileShow renders one profile.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, p config.Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:      %s", p.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Server:    %s\n", p.Server)
	_, _ = fmt.Fprintf(w, "Namespace: %s\n", p.Namespace)
	_, _ = fmt.Fprintf(w, "Dataset:   %s\n", p.Dataset)
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

type jsonNode struct {
	Path         string `json:"path"`
	IsDir        bool   `json:"is_dir"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

// FormatList formats tree nodes as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, root string, nodes []browser.Node) error {
	output := struct {
		Files []jsonNode `json:"files"`
	}{
		Files: make([]jsonNode, len(nodes)),
	}
	for i := range nodes {
		node := &nodes[i]
		jn := jsonNode{
			Path:  displayPath(root, node),
			IsDir: node.IsDir,
		}
		if !node.IsDir {
			jn.SizeBytes = node.Size
			jn.LastModified = node.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00")
			jn.ETag = node.ETag
		}
		output.Files[i] = jn
	}
	return writeJSON(w, output)
}

// FormatUpload formats a transferred batch as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, batch *browser.Batch) error {
	type jsonEntry struct {
		Key       string `json:"key"`
		SizeBytes int64  `json:"size_bytes"`
	}

	output := struct {
		BatchID    string      `json:"batch_id"`
		Uploaded   []jsonEntry `json:"uploaded"`
		TotalBytes int64       `json:"total_bytes"`
	}{
		BatchID:    batch.ID.String(),
		Uploaded:   make([]jsonEntry, len(batch.Entries)),
		TotalBytes: batch.TotalSize(),
	}
	for i := range batch.Entries {
		e := &batch.Entries[i]
		output.Uploaded[i] = jsonEntry{Key: batch.TargetPrefix + e.Path, SizeBytes: e.Size}
	}
	return writeJSON(w, output)
}

// FormatDownload formats a finished download as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, remote, local string, size int64) error {
	output := struct {
		RemotePath string `json:"remote_path"`
		LocalPath  string `json:"local_path"`
		SizeBytes  int64  `json:"size_bytes"`
	}{
		RemotePath: remote,
		LocalPath:  local,
		SizeBytes:  size,
	}
	return writeJSON(w, output)
}

// FormatDelete formats removed keys as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, keys []string) error {
	output := struct {
		Deleted []string `json:"deleted"`
	}{Deleted: keys}
	if output.Deleted == nil {
		output.Deleted = []string{}
	}
	return writeJSON(w, output)
}

// FormatDetails formats the focused-file view as JSON.
func (f *JSONFormatter) FormatDetails(w io.Writer, d *browser.Details) error {
	output := struct {
		Key          string              `json:"key"`
		SizeBytes    int64               `json:"size_bytes"`
		LastModified string              `json:"last_modified"`
		ETag         string              `json:"etag,omitempty"`
		URI          string              `json:"uri"`
		Metadata     hoss.ObjectMetadata `json:"metadata,omitempty"`
	}{
		Key:          d.Info.Key,
		SizeBytes:    d.Info.Size,
		LastModified: d.Info.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ETag:         d.Info.ETag,
		URI:          d.URI,
		Metadata:     d.Metadata,
	}
	return writeJSON(w, output)
}

// FormatSearch formats search rows as JSON.
func (f *JSONFormatter) FormatSearch(w io.Writer, rows []hoss.SearchRow) error {
	output := struct {
		Results []hoss.SearchRow `json:"results"`
	}{Results: rows}
	if output.Results == nil {
		output.Results = []hoss.SearchRow{}
	}
	return writeJSON(w, output)
}

// FormatIdentity formats the logged-in user as JSON.
func (f *JSONFormatter) FormatIdentity(w io.Writer, id *auth.Identity) error {
	output := struct {
		Subject    string   `json:"subject"`
		Email      string   `json:"email"`
		Nickname   string   `json:"nickname,omitempty"`
		GivenName  string   `json:"given_name,omitempty"`
		FamilyName string   `json:"family_name,omitempty"`
		Role       string   `json:"role"`
		Groups     []string `json:"groups,omitempty"`
		ExpiresAt  string   `json:"expires_at,omitempty"`
	}{
		Subject:    id.Subject,
		Email:      id.Email,
		Nickname:   id.Nickname,
		GivenName:  id.GivenName,
		FamilyName: id.FamilyName,
		Role:       string(id.Role),
		Groups:     id.Groups,
	}
	if !id.ExpiresAt.IsZero() {
		output.ExpiresAt = id.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return writeJSON(w, output)
}

// FormatStrings formats a completion list as JSON.
func (f *JSONFormatter) FormatStrings(w io.Writer, label string, values []string) error {
	if values == nil {
		values = []string{}
	}
	return writeJSON(w, map[string][]string{label: values})
}

type jsonProfile struct {
	Name      string `json:"name"`
	Server    string `json:"server"`
	Namespace string `json:"namespace,omitempty"`
	Dataset   string `json:"dataset,omitempty"`
	Default   bool   `json:"default"`
}

// FormatProfileList formats profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []config.Profile, defaultName string) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}
	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:      p.Name,
			Server:    p.Server,
			Namespace: p.Namespace,
			Dataset:   p.Dataset,
			Default:   p.Name == defaultName,
		}
	}
	return writeJSON(w, output)
}

// FormatProfileShow formats one profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, p config.Profile, isDefault bool) error {
	return writeJSON(w, jsonProfile{
		Name:      p.Name,
		Server:    p.Server,
		Namespace: p.Namespace,
		Dataset:   p.Dataset,
		Default:   isDefault,
	})
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// displayPath strips the dataset root so output shows dataset-relative
// paths, keeping the trailing slash on folders.
func displayPath(root string, node *browser.Node) string {
	path := strings.TrimPrefix(node.Key, root)
	if node.IsDir && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
