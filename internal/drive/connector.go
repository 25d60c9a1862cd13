// Package drive is the remote source connector. The catalog and loader only
// ever see the Connector interface; the Google Drive implementation behind
// it lists the configured folder tree and downloads files by handle.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// SourceFile describes one remote source: an opaque fetch handle, the bare
// filename, the folder path leading to it (used as a metadata hint), and the
// remote content fingerprint.
type SourceFile struct {
	Handle      string
	Name        string
	Path        string
	Fingerprint string
}

// Connector is the remote-storage contract the core depends on. Both calls
// are fallible and never retried; a failure yields an empty result for the
// affected source.
type Connector interface {
	ListSources(ctx context.Context) ([]SourceFile, error)
	Fetch(ctx context.Context, handle string) ([]byte, error)
}

const (
	folderMimeType = "application/vnd.google-apps.folder"
	listPageSize   = 200
)

// DriveConnector lists and fetches CSV sources from a Google Drive folder.
type DriveConnector struct {
	service  *gdrive.Service
	folderID string
	logger   *logrus.Logger
}

// NewDriveConnector builds a read-only Drive client from a service-account
// credentials file.
func NewDriveConnector(ctx context.Context, credentialsFile, folderID string, logger *logrus.Logger) (*DriveConnector, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	service, err := gdrive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gdrive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveConnector{
		service:  service,
		folderID: folderID,
		logger:   logger,
	}, nil
}

// ListSources walks the configured folder tree and returns every CSV file
// found, with its folder path relative to the root as the path hint.
func (c *DriveConnector) ListSources(ctx context.Context) ([]SourceFile, error) {
	var sources []SourceFile
	if err := c.listFolder(ctx, c.folderID, "", &sources); err != nil {
		return nil, err
	}
	c.logger.WithField("count", len(sources)).Info("Listed remote sources")
	return sources, nil
}

func (c *DriveConnector) listFolder(ctx context.Context, folderID, prefix string, out *[]SourceFile) error {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	pageToken := ""
	for {
		call := c.service.Files.List().
			Context(ctx).
			Q(query).
			PageSize(listPageSize).
			Fields(googleapi.Field("nextPageToken, files(id, name, mimeType, md5Checksum)"))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}

		for _, f := range list.Files {
			if f.MimeType == folderMimeType {
				if err := c.listFolder(ctx, f.Id, prefix+f.Name+"/", out); err != nil {
					return err
				}
				continue
			}
			if !strings.HasSuffix(f.Name, ".csv") {
				continue
			}
			*out = append(*out, SourceFile{
				Handle:      f.Id,
				Name:        f.Name,
				Path:        prefix + f.Name,
				Fingerprint: f.Md5Checksum,
			})
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			return nil
		}
	}
}

// Fetch downloads one file's raw bytes.
func (c *DriveConnector) Fetch(ctx context.Context, handle string) ([]byte, error) {
	resp, err := c.service.Files.Get(handle).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", handle, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", handle, err)
	}
	return data, nil
}
