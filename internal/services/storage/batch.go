package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Object is one file to upload.
type Object struct {
	Path        string
	Data        []byte
	ContentType string
}

// UploadMultiple uploads objects concurrently and returns their URLs in input
// order. It is all or nothing: if any upload fails, the ones that succeeded
// are deleted again before the error is returned.
func UploadMultiple(ctx context.Context, store ObjectStore, objects []Object, logger *zap.Logger) ([]string, error) {
	if len(objects) == 0 {
		return []string{}, nil
	}

	urls := make([]string, len(objects))
	errs := make([]error, len(objects))

	numWorkers := 5
	if len(objects) < numWorkers {
		numWorkers = len(objects)
	}

	jobs := make(chan int, len(objects))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				urls[i], errs[i] = store.Upload(ctx, objects[i].Data, objects[i].Path, objects[i].ContentType)
			}
		}()
	}

	for i := range objects {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var failed []string
	var firstErr error
	var uploaded []string
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", objects[i].Path, err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		uploaded = append(uploaded, objects[i].Path)
	}

	if len(failed) > 0 {
		DeleteAll(context.WithoutCancel(ctx), store, uploaded, logger)
		return nil, fmt.Errorf("failed to upload %d of %d files (%s): %w",
			len(failed), len(objects), strings.Join(failed, "; "), firstErr)
	}

	return urls, nil
}

// DeleteAll removes paths on a best-effort basis, logging each failure.
func DeleteAll(ctx context.Context, store ObjectStore, paths []string, logger *zap.Logger) {
	for _, path := range paths {
		if err := store.Delete(ctx, path); err != nil {
			logger.Warn("Failed to delete orphaned object",
				zap.String("backend", store.Name()),
				zap.String("path", path),
				zap.Error(err))
		}
	}
}
