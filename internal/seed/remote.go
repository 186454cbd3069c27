package seed

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Kinds lists seed files in load order. Sales and events reference products.
var Kinds = []Kind{KindProducts, KindSales, KindEvents}

// FetchFiles downloads <kind>.csv objects found under prefix into dir and returns
// the local path per kind. Kinds with no object are left out.
func FetchFiles(ctx context.Context, store storage.ObjectStorage, prefix, dir string) (map[Kind]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list seed objects under %q: %w", prefix, err)
	}

	wanted := make(map[string]Kind, len(Kinds))
	for _, k := range Kinds {
		wanted[string(k)+".csv"] = k
	}

	files := make(map[Kind]string)
	for _, obj := range objects {
		kind, ok := wanted[path.Base(obj.Key)]
		if !ok {
			continue
		}
		if _, dup := files[kind]; dup {
			return nil, fmt.Errorf("more than one %s.csv under %q", kind, prefix)
		}

		dest := filepath.Join(dir, string(kind)+".csv")
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, err
		}
		log.Info().Str("key", obj.Key).Int64("bytes", obj.Size).Msg("seed: downloaded")
		files[kind] = dest
	}

	return files, nil
}
