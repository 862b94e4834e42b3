package resources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cogdata/go-cdf-client/core"
	"go.uber.org/zap"
)

const FileResourceType = "File"

type FileMetadata struct {
	ID              int64             `json:"id,omitempty"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name,omitempty"`
	Source          string            `json:"source,omitempty"`
	MimeType        string            `json:"mimeType,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	AssetIDs        []int64           `json:"assetIds,omitempty"`
	Uploaded        bool              `json:"uploaded,omitempty"`
	UploadedTime    int64             `json:"uploadedTime,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
	UploadURL       string            `json:"uploadUrl,omitempty"`
}

func (f FileMetadata) DumpUpdate() (core.Params, error) {
	return core.ObjectToUpdate(f, "createdTime", "lastUpdatedTime", "uploaded", "uploadedTime", "uploadUrl", "name", "mimeType")
}

type FileFilter struct {
	Name             string            `json:"name,omitempty"`
	MimeType         string            `json:"mimeType,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	AssetIDs         []int64           `json:"assetIds,omitempty"`
	Source           string            `json:"source,omitempty"`
	ExternalIDPrefix string            `json:"externalIdPrefix,omitempty"`
	Uploaded         *bool             `json:"uploaded,omitempty"`
	CreatedTime      *TimestampRange   `json:"createdTime,omitempty"`
	LastUpdatedTime  *TimestampRange   `json:"lastUpdatedTime,omitempty"`
	UploadedTime     *TimestampRange   `json:"uploadedTime,omitempty"`
}

type FileSearch struct {
	Name string `json:"name,omitempty"`
}

type FileUpdate struct {
	*core.UpdateBuilder
}

func NewFileUpdate(id core.Identifier) *FileUpdate {
	return &FileUpdate{UpdateBuilder: core.NewUpdateBuilder(id)}
}

func (u *FileUpdate) ExternalID() core.PrimitiveUpdate[string, *FileUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "externalId")
}

func (u *FileUpdate) Source() core.PrimitiveUpdate[string, *FileUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "source")
}

func (u *FileUpdate) Metadata() core.ObjectUpdate[string, *FileUpdate] {
	return core.NewObjectUpdate[string](u, u.UpdateBuilder, "metadata")
}

func (u *FileUpdate) AssetIDs() core.ListUpdate[int64, *FileUpdate] {
	return core.NewListUpdate[int64](u, u.UpdateBuilder, "assetIds")
}

// FilesAPI manages file metadata and moves file content through signed upload and download URLs.
type FilesAPI struct {
	typedResource[FileMetadata]
}

func NewFilesAPI(rest core.CogniteRest) *FilesAPI {
	return &FilesAPI{typedResource: typedResource[FileMetadata]{
		Untyped: newResource(rest, "/files", FileResourceType, core.NewResourceOps(core.C, core.L, core.R, core.U, core.D, core.S), ""),
	}}
}

func (a *FilesAPI) Retrieve(ctx context.Context, id core.Identifier) (*FileMetadata, error) {
	return a.retrieve(ctx, id)
}

func (a *FilesAPI) RetrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]FileMetadata, error) {
	return a.retrieveMultiple(ctx, ids, ignoreUnknown)
}

func (a *FilesAPI) List(ctx context.Context, filter *FileFilter, limit int) ([]FileMetadata, error) {
	return a.list(ctx, filter, limit)
}

func (a *FilesAPI) Update(ctx context.Context, updates ...core.UpdateItem) ([]FileMetadata, error) {
	return a.update(ctx, updates)
}

func (a *FilesAPI) Delete(ctx context.Context, ids *core.IdentifierSequence) error {
	return a.delete(ctx, ids, nil)
}

func (a *FilesAPI) Search(ctx context.Context, name string, filter *FileFilter, limit int) ([]FileMetadata, error) {
	return a.search(ctx, FileSearch{Name: name}, filter, limit)
}

// UploadBytes registers the file metadata and uploads content to the returned upload URL.
// With overwrite an existing file with the same external id is replaced.
func (a *FilesAPI) UploadBytes(ctx context.Context, content io.Reader, meta FileMetadata, overwrite bool) (*FileMetadata, error) {
	if err := a.Untyped.Check(core.C); err != nil {
		return nil, err
	}
	meta.UploadURL = ""
	body, err := core.NewParamsFromStruct(meta)
	if err != nil {
		return nil, err
	}
	record, err := core.Request[core.Record](ctx, a.Untyped, http.MethodPost, a.Untyped.GetResourcePath(),
		core.Params{"overwrite": strconv.FormatBool(overwrite)}, body)
	if err != nil {
		return nil, err
	}
	var created FileMetadata
	if err = record.Fill(&created); err != nil {
		return nil, err
	}
	if created.UploadURL == "" {
		return nil, fmt.Errorf("platform returned no upload url for file %q", meta.Name)
	}
	var headers []http.Header
	if meta.MimeType != "" {
		headers = append(headers, http.Header{core.HeaderUploadContentType: []string{meta.MimeType}})
	}
	resp, err := a.Untyped.Session().Stream(ctx, http.MethodPut, created.UploadURL, content, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to upload content of file %q: %w", meta.Name, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	created.UploadURL = ""
	return &created, nil
}

func (a *FilesAPI) uploadPath(ctx context.Context, path string, meta FileMetadata, overwrite bool) (*FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return a.UploadBytes(ctx, f, meta, overwrite)
}

// Upload uploads a single file, or every file of a directory concurrently. For a single file
// meta is used as given with the base name as default name; directory entries only carry their
// base name. With recursive, sub-directories are walked too.
func (a *FilesAPI) Upload(ctx context.Context, path string, meta FileMetadata, recursive, overwrite bool) ([]FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path %q does not exist: %w", path, err)
	}
	if !info.IsDir() {
		if meta.Name == "" {
			meta.Name = filepath.Base(path)
		}
		uploaded, err := a.uploadPath(ctx, path, meta, overwrite)
		if err != nil {
			return nil, err
		}
		return []FileMetadata{*uploaded}, nil
	}

	var paths []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				paths = append(paths, p)
			}
			return nil
		})
	} else {
		var entries []fs.DirEntry
		entries, err = os.ReadDir(path)
		for _, e := range entries {
			if e.Type().IsRegular() {
				paths = append(paths, filepath.Join(path, e.Name()))
			}
		}
	}
	if err != nil {
		return nil, err
	}

	tasks := make([]core.Task[*FileMetadata], 0, len(paths))
	for _, p := range paths {
		tasks = append(tasks, core.Task[*FileMetadata]{
			Input: filepath.Base(p),
			Run: func(ctx context.Context) (*FileMetadata, error) {
				return a.uploadPath(ctx, p, FileMetadata{Name: filepath.Base(p)}, overwrite)
			},
		})
	}
	summary := core.ExecuteTasks(ctx, a.Untyped.Session().GetConfig().MaxWorkers, tasks)
	if err = summary.Err(); err != nil {
		return nil, err
	}
	out := make([]FileMetadata, 0, len(summary.Results))
	for _, f := range summary.Results {
		out = append(out, *f)
	}
	return out, nil
}

func (a *FilesAPI) downloadLink(ctx context.Context, id core.Identifier) (string, error) {
	links, err := core.Request[core.RecordSet](ctx, a.Untyped, http.MethodPost, a.Untyped.SubPath("downloadlink"), nil,
		core.Params{"items": []core.Params{id.Params()}})
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", &core.NotFoundError{Resource: FileResourceType, Query: id.String()}
	}
	link, _ := links[0]["downloadUrl"].(string)
	if link == "" {
		return "", fmt.Errorf("platform returned no download url for file %s", id)
	}
	return link, nil
}

func (a *FilesAPI) openDownload(ctx context.Context, id core.Identifier) (io.ReadCloser, error) {
	link, err := a.downloadLink(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := a.Untyped.Session().Stream(ctx, http.MethodGet, link, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DownloadBytes reads the whole content of a file into memory.
func (a *FilesAPI) DownloadBytes(ctx context.Context, id core.Identifier) ([]byte, error) {
	body, err := a.openDownload(ctx, id)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Download streams the given files into dir, naming each after the base of its metadata name.
// A file selected twice is downloaded once. Two different files with the same base name are an
// error, reported before anything is written.
func (a *FilesAPI) Download(ctx context.Context, dir string, ids *core.IdentifierSequence) error {
	if ids == nil || ids.Len() == 0 {
		return errors.New("no files to download")
	}
	files, err := a.RetrieveMultiple(ctx, ids, false)
	if err != nil {
		return err
	}
	byKey := make(map[string]FileMetadata, 2*len(files))
	for _, f := range files {
		byKey[core.ById(f.ID).String()] = f
		if f.ExternalID != "" {
			byKey[core.ByExternalId(f.ExternalID).String()] = f
		}
	}

	type claim struct {
		fileID int64
		by     core.Identifier
	}
	claimed := make(map[string]claim, len(files))
	logger := a.Untyped.Session().GetConfig().Logger
	tasks := make([]core.Task[string], 0, ids.Len())
	for _, id := range ids.Identifiers() {
		f, ok := byKey[id.String()]
		if !ok || f.Name == "" {
			return fmt.Errorf("file %s has no name to store it under", id)
		}
		target := filepath.Join(dir, filepath.Base(f.Name))
		if prev, seen := claimed[target]; seen {
			if prev.fileID == f.ID {
				continue
			}
			return fmt.Errorf("files %s and %s would both be written to %s", prev.by, id, target)
		}
		claimed[target] = claim{fileID: f.ID, by: id}
		tasks = append(tasks, core.Task[string]{
			Input: id.String(),
			Run: func(ctx context.Context) (string, error) {
				if err := a.downloadTo(ctx, id, target); err != nil {
					return "", err
				}
				logger.Debug("file downloaded", zap.Stringer("file", id), zap.String("path", target))
				return target, nil
			},
		})
	}
	return core.ExecuteTasks(ctx, a.Untyped.Session().GetConfig().MaxWorkers, tasks).Err()
}

func (a *FilesAPI) downloadTo(ctx context.Context, id core.Identifier, path string) error {
	body, err := a.openDownload(ctx, id)
	if err != nil {
		return err
	}
	defer body.Close()
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
