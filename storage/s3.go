package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"drug-repo/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArtifactStore speichert Dateien eines Laufs (gefilterter Katalog, Kandidatenliste).
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpunkt.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ArtifactS3URL,
				SigningRegion:     cfg.ArtifactS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ArtifactS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArtifactS3Key, cfg.ArtifactS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// S3ArtifactStore lädt Artefakte in einen Bucket hoch.
type S3ArtifactStore struct {
	Client   *s3.Client
	Bucket   string
	Endpoint string
}

// NewS3ArtifactStore erstellt den Artefakt-Speicher aus der Konfiguration.
func NewS3ArtifactStore(cfg *config.Config) (*S3ArtifactStore, error) {
	client, err := NewS3Client(cfg)
	if err != nil {
		return nil, err
	}
	return &S3ArtifactStore{Client: client, Bucket: cfg.ArtifactS3Bucket, Endpoint: cfg.ArtifactS3URL}, nil
}

// Upload lädt eine Datei ins S3 hoch und gibt den Link zurück.
func (s *S3ArtifactStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return ObjectLink(s.Endpoint, s.Bucket, key), nil
}

// ObjectLink baut den Link auf ein Objekt im Pfad-Stil.
func ObjectLink(endpoint, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint, "/"), bucket, key)
}
