package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"donorflow/types"
)

const listPageSize = 500

// LoadDocuments pulls every scanned document under the prefix from the
// document store. The document kind is inferred from the key's directory
// segments, so an upload layout like incoming/2026-08-14/envelope/scan-7.png
// classifies itself.
func LoadDocuments(ctx context.Context, store *S3, bucket, prefix string) ([]types.Document, error) {
	var docs []types.Document
	var continuation *string

	for {
		page, err := store.List(ctx, bucket, prefix, listPageSize, continuation)
		if err != nil {
			return nil, fmt.Errorf("listing documents under s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			key := *obj.Key
			if strings.HasSuffix(key, "/") {
				continue
			}
			body, err := store.Get(ctx, bucket, key)
			if err != nil {
				return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
			}
			content, err := io.ReadAll(body)
			body.Close()
			if err != nil {
				return nil, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
			}
			docs = append(docs, types.Document{
				ID:      key,
				Kind:    kindFromKey(key),
				Name:    path.Base(key),
				Content: content,
			})
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}

	log.Printf("Loaded %d documents from s3://%s/%s", len(docs), bucket, prefix)
	return docs, nil
}

func kindFromKey(key string) types.DocumentKind {
	for _, segment := range strings.Split(path.Dir(key), "/") {
		switch strings.ToLower(segment) {
		case "envelope", "envelopes":
			return types.DocumentEnvelope
		case "ledger", "ledgers":
			return types.DocumentLedger
		case "csv":
			return types.DocumentCSV
		}
	}
	if strings.EqualFold(path.Ext(key), ".csv") {
		return types.DocumentCSV
	}
	return types.DocumentCheck
}

// LoadLocalDocuments reads every regular file under dir so single-shot
// runs can work from a local scan folder instead of the store. Kind
// inference uses the same directory-segment rules as store keys.
func LoadLocalDocuments(dir string) ([]types.Document, error) {
	var docs []types.Document
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		key := filepath.ToSlash(rel)
		docs = append(docs, types.Document{
			ID:      key,
			Kind:    kindFromKey(key),
			Name:    d.Name(),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d documents from %s", len(docs), dir)
	return docs, nil
}

// ExportResult writes the finished batch result as JSON next to the
// source documents, under <prefix>/results/<runID>.json.
func ExportResult(ctx context.Context, store *S3, bucket, prefix string, result *types.BatchResult) (string, error) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding batch result: %w", err)
	}

	key := path.Join(prefix, "results", result.RunID+".json")
	if err := store.Put(ctx, bucket, key, bytes.NewReader(payload), "application/json"); err != nil {
		return "", fmt.Errorf("uploading batch result to s3://%s/%s: %w", bucket, key, err)
	}
	log.Printf("Exported run %s results to s3://%s/%s", result.RunID, bucket, key)
	return key, nil
}
