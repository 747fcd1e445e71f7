package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"player-directory/core/storage"
	"player-directory/feature/directory/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const snapshotPrefix = "snapshots/"

// Snapshot is one exported directory state.
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Players   []*models.Player `json:"players"`
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	Object    string    `json:"object"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerSource supplies the directory contents to export.
type PlayerSource interface {
	All() []*models.Player
}

// Service exports directory snapshots to object storage and manages the
// stored set.
type Service struct {
	client  storage.Client
	bucket  string
	logger  *zap.Logger
	players PlayerSource
}

// NewService creates a new backup service.
func NewService(client storage.Client, bucket string, logger *zap.Logger, players PlayerSource) *Service {
	return &Service{client: client, bucket: bucket, logger: logger, players: players}
}

// EnsureBucket creates the snapshot bucket if it does not exist yet.
func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created snapshot bucket", zap.String("bucket", s.bucket))
	return nil
}

// Export serializes the full directory and uploads it as a new snapshot
// object. Returns the object name.
func (s *Service) Export(ctx context.Context) (string, error) {
	snap := Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Players:   s.players.All(),
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	object := fmt.Sprintf("%s%s-%s.json", snapshotPrefix, snap.CreatedAt.Format("20060102T150405Z"), snap.ID)
	_, err = s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", object, err)
	}

	s.logger.Info("Exported directory snapshot",
		zap.String("object", object),
		zap.Int("players", len(snap.Players)))
	return object, nil
}

// List returns the stored snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]SnapshotInfo, error) {
	var infos []SnapshotInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: snapshotPrefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list snapshots: %w", obj.Err)
		}
		infos = append(infos, SnapshotInfo{
			Object:    obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Fetch downloads one stored snapshot by object name.
func (s *Service) Fetch(ctx context.Context, object string) (*Snapshot, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download snapshot %s: %w", object, err)
	}
	defer reader.Close()

	var snap Snapshot
	if err := json.NewDecoder(reader).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", object, err)
	}
	return &snap, nil
}

// Prune deletes the oldest snapshots beyond the retained count. Returns the
// number deleted.
func (s *Service) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, info := range infos[keep:] {
		if err := s.client.RemoveObject(ctx, s.bucket, info.Object, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("remove snapshot %s: %w", info.Object, err)
		}
		deleted++
	}
	s.logger.Info("Pruned directory snapshots", zap.Int("deleted", deleted), zap.Int("kept", keep))
	return deleted, nil
}
