package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kelseyhightower/envconfig"

	"drug-repo/config"
	"drug-repo/storage"
)

type BackupConfig struct {
	Prefix      string `envconfig:"BACKUP_PREFIX" default:"archives/"`
	KeepBackups int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

func main() {
	log.Println("Starte Archivierung des Ausgabeverzeichnisses...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	var backupCfg BackupConfig
	if err := envconfig.Process("", &backupCfg); err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	if !cfg.ArtifactsEnabled() {
		log.Fatalf("ARTIFACT_S3_BUCKET ist nicht gesetzt")
	}

	// 1. Archiv erstellen
	archive, err := archiveDir(cfg.OutputDir)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des Archivs: %v", err)
	}

	// 2. S3-Client erstellen
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	// 3. Archiv hochladen
	ctx := context.Background()
	key := archiveKey(backupCfg.Prefix, time.Now())
	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.ArtifactS3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(archive),
	})
	if err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Archiv erfolgreich nach s3://%s/%s hochgeladen (%d Bytes)", cfg.ArtifactS3Bucket, key, len(archive))

	// 4. Alte Archive rotieren
	if err := rotateBackups(ctx, s3Client, cfg.ArtifactS3Bucket, backupCfg); err != nil {
		log.Fatalf("Fehler bei der Rotation alter Archive: %v", err)
	}

	log.Println("Archivierung erfolgreich abgeschlossen.")
}

func archiveKey(prefix string, now time.Time) string {
	return fmt.Sprintf("%soutput-%s.tar.gz", prefix, now.UTC().Format("2006-01-02T15-04-05Z"))
}

// archiveDir packt alle regulären Dateien unter dir als tar.gz, Pfade relativ zu dir.
func archiveDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tarWriter, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rotateBackups(ctx context.Context, client *s3.Client, bucket string, cfg BackupConfig) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(cfg.Prefix),
	})
	if err != nil {
		return err
	}

	expired := expiredKeys(output.Contents, cfg.Prefix, cfg.KeepBackups)
	if len(expired) == 0 {
		log.Printf("Höchstens %d Archive vorhanden, keine Rotation nötig.", cfg.KeepBackups)
		return nil
	}
	for _, key := range expired {
		log.Printf("Lösche altes Archiv: %s", key)
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			log.Printf("Fehler beim Löschen von %s: %v", key, err)
		}
	}
	return nil
}

// expiredKeys liefert alle Archive außer den keep neuesten.
func expiredKeys(objects []types.Object, prefix string, keep int) []string {
	archives := make([]types.Object, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil || obj.LastModified == nil {
			continue
		}
		if !strings.HasPrefix(*obj.Key, prefix) || !strings.HasSuffix(*obj.Key, ".tar.gz") {
			continue
		}
		archives = append(archives, obj)
	}
	if len(archives) <= keep {
		return nil
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].LastModified.After(*archives[j].LastModified)
	})
	keys := make([]string, 0, len(archives)-keep)
	for _, obj := range archives[keep:] {
		keys = append(keys, *obj.Key)
	}
	return keys
}
