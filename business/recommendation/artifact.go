package recommendation

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"myGroupBuy/domain"

	"gorm.io/datatypes"
)

// ArtifactMetadata describes one training run.
type ArtifactMetadata struct {
	ModelType       string
	Version         string
	TrainedAt       time.Time
	DataFrom        time.Time
	DataTo          time.Time
	QualityMetrics  map[string]float64
	Hyperparameters map[string]float64
}

// ClusterModel is the serving view of a clustering run.
type ClusterModel struct {
	K           int
	Silhouette  float64
	Degenerate  bool
	Categories  []string
	Centroids   [][]float64
	Assignments map[uint]Assignment
	Profiles    map[int]ClusterProfile
}

// Artifact bundles everything serving needs from one training run. Once
// published it is never mutated; a retrain produces a new Artifact.
type Artifact struct {
	Meta     ArtifactMetadata
	Scaler   Scaler
	Clusters ClusterModel
	Content  *ContentModel
}

// Assignment returns the user's cluster, or false when the user was not
// clustered in this run.
func (a *Artifact) Assignment(userID uint) (Assignment, bool) {
	if a == nil {
		return Assignment{}, false
	}
	as, ok := a.Clusters.Assignments[userID]
	if !ok || as.ClusterID == UnclusteredID {
		return Assignment{}, false
	}
	return as, true
}

func (a *Artifact) Profile(clusterID int) (ClusterProfile, bool) {
	if a == nil {
		return ClusterProfile{}, false
	}
	p, ok := a.Clusters.Profiles[clusterID]
	return p, ok
}

// assignmentRows flattens the clustering into persisted rows, by user id.
func (a *Artifact) assignmentRows() []domain.ClusterAssignment {
	rows := make([]domain.ClusterAssignment, 0, len(a.Clusters.Assignments))
	for id, as := range a.Clusters.Assignments {
		rows = append(rows, domain.ClusterAssignment{
			UserID:     id,
			ClusterID:  as.ClusterID,
			Distance:   as.Distance,
			Version:    a.Meta.Version,
			AssignedAt: a.Meta.DataTo,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}

func (a *Artifact) BlobKey() string {
	return fmt.Sprintf("%s/%s.gob.gz", a.Meta.ModelType, a.Meta.Version)
}

// encodeArtifact serializes with gob, compresses with gzip and returns the
// payload together with its sha256 checksum.
func encodeArtifact(a *Artifact) ([]byte, string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(a); err != nil {
		return nil, "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to compress artifact: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

func decodeArtifact(r io.Reader, checksum string) (*Artifact, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if checksum != "" {
		sum := sha256.Sum256(raw)
		if hex.EncodeToString(sum[:]) != checksum {
			return nil, ErrChecksumMismatch
		}
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer zr.Close()

	var a Artifact
	if err := gob.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return &a, nil
}

// record builds the metadata row. Non-finite metrics (e.g. the silhouette of
// a skipped clustering) are stored as null.
func (a *Artifact) record(checksum string, size int64) domain.ModelArtifact {
	return domain.ModelArtifact{
		ModelType:       a.Meta.ModelType,
		Version:         a.Meta.Version,
		TrainedAt:       a.Meta.TrainedAt,
		QualityMetrics:  jsonMetrics(a.Meta.QualityMetrics),
		Hyperparameters: jsonMetrics(a.Meta.Hyperparameters),
		DataFrom:        a.Meta.DataFrom,
		DataTo:          a.Meta.DataTo,
		BlobKey:         a.BlobKey(),
		Checksum:        checksum,
		SizeBytes:       size,
	}
}

func jsonMetrics(m map[string]float64) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}
