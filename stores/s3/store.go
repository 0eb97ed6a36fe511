// Package s3 stores documents, scenes and settings as objects in one bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"wireframe-canvas/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	documentsPrefix = "documents/"
	scenesPrefix    = "scenes/"
	settingsPrefix  = "settings/"
)

// API is the subset of *s3.Client the store uses.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Store struct {
	client API
	bucket string
}

// NewStore uses the default AWS credential chain.
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

func NewStoreWithClient(client API, bucketName string) *Store {
	return &Store{client: client, bucket: bucketName}
}

// name validates a single key segment.
func name(id string) (string, error) {
	if id == "" || id == "." || id == ".." || path.Base(id) != id || strings.Contains(id, `\`) {
		return "", fmt.Errorf("invalid id %q: must be a plain name", id)
	}
	return id, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *Store) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	if _, err := name(id); err != nil {
		return nil, err
	}
	data, err := s.get(ctx, documentsPrefix+id)
	if err != nil {
		if isNotFound(err) {
			log.WithField("error", "document not found").Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve document")
		return nil, fmt.Errorf("failed to get document with id %s: %w", id, err)
	}
	log.Info("Document retrieved successfully")
	return &core.Document{Data: *bytes.NewBuffer(data)}, nil
}

func (s *Store) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": document.Data.Len(),
	})
	if err := s.put(ctx, documentsPrefix+id, document.Data.Bytes()); err != nil {
		log.WithError(err).Error("Failed to create document")
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	log.Info("Document created successfully")
	return id, nil
}

// List reads every scene object. Unreadable objects are skipped.
func (s *Store) List(ctx context.Context) ([]*core.Scene, error) {
	scenes := []*core.Scene{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(scenesPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logrus.WithError(err).Error("Failed to list scenes")
			return nil, fmt.Errorf("failed to list scenes: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			log := logrus.WithField("key", key)
			data, err := s.get(ctx, key)
			if err != nil {
				log.WithError(err).Warn("Failed to get scene object, skipping")
				continue
			}
			var scene core.Scene
			if err := json.Unmarshal(data, &scene); err != nil {
				log.WithError(err).Warn("Failed to unmarshal scene, skipping")
				continue
			}
			scene.Objects = nil
			scenes = append(scenes, &scene)
		}
	}
	core.SortScenes(scenes)
	logrus.Infof("Listed %d scenes", len(scenes))
	return scenes, nil
}

func sceneKey(id string) (string, error) {
	if _, err := name(id); err != nil {
		return "", err
	}
	return scenesPrefix + id + ".json", nil
}

func (s *Store) Get(ctx context.Context, id string) (*core.Scene, error) {
	log := logrus.WithField("scene_id", id)
	key, err := sceneKey(id)
	if err != nil {
		return nil, err
	}
	data, err := s.get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			log.Warn("Scene not found")
			return nil, fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to get scene")
		return nil, fmt.Errorf("failed to get scene %s: %w", id, err)
	}
	var scene core.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene data: %w", err)
	}
	log.Info("Scene retrieved successfully")
	return &scene, nil
}

// Save writes the scene, keeping the CreatedAt of an existing object.
func (s *Store) Save(ctx context.Context, scene *core.Scene) error {
	key, err := sceneKey(scene.ID)
	if err != nil {
		return err
	}
	log := logrus.WithField("scene_id", scene.ID)

	now := time.Now()
	if existing, err := s.Get(ctx, scene.ID); err == nil {
		scene.CreatedAt = existing.CreatedAt
	} else {
		scene.CreatedAt = now
	}
	scene.UpdatedAt = now

	data, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := s.put(ctx, key, data); err != nil {
		log.WithError(err).Error("Failed to save scene")
		return fmt.Errorf("failed to save scene %s: %w", scene.ID, err)
	}
	log.Info("Scene saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("scene_id", id)
	key, err := sceneKey(id)
	if err != nil {
		return err
	}
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			log.Warn("Scene not found for deletion")
			return fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("failed to check scene %s: %w", id, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		log.WithError(err).Error("Failed to delete scene")
		return fmt.Errorf("failed to delete scene %s: %w", id, err)
	}
	log.Info("Scene deleted successfully")
	return nil
}

type settingsStore struct {
	store *Store
}

// Settings returns the store's view for shell settings.
func (s *Store) Settings() core.SettingsStore {
	return settingsStore{store: s}
}

func settingKey(scope, key string) (string, error) {
	if _, err := name(scope); err != nil {
		return "", err
	}
	if _, err := name(key); err != nil {
		return "", err
	}
	return settingsPrefix + scope + "/" + key + ".json", nil
}

func (v settingsStore) Load(ctx context.Context, scope, key string) ([]byte, error) {
	objectKey, err := settingKey(scope, key)
	if err != nil {
		return nil, err
	}
	data, err := v.store.get(ctx, objectKey)
	if isNotFound(err) {
		return nil, fmt.Errorf("setting %s/%s %w", scope, key, core.ErrNotFound)
	}
	return data, err
}

func (v settingsStore) Save(ctx context.Context, scope, key string, value []byte) error {
	objectKey, err := settingKey(scope, key)
	if err != nil {
		return err
	}
	return v.store.put(ctx, objectKey, value)
}

func (v settingsStore) Delete(ctx context.Context, scope, key string) error {
	objectKey, err := settingKey(scope, key)
	if err != nil {
		return err
	}
	_, err = v.store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(v.store.bucket),
		Key:    aws.String(objectKey),
	})
	return err
}
