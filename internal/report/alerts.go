// Package report renders reorder alerts as CSV and ships them to object storage.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/storage"
	"github.com/rs/zerolog/log"
)

var alertHeaders = []string{
	"product_id",
	"barcode",
	"product_name",
	"brand",
	"category",
	"stock_status",
	"status_label",
	"current_stock",
	"days_of_stock",
	"forecasted_daily_units",
	"suggested_reorder_qty",
	"confidence",
	"forecast_date",
}

// WriteAlertsCSV writes one row per alert, in the given order, after a header row.
func WriteAlertsCSV(w io.Writer, alerts []domain.ForecastResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(alertHeaders); err != nil {
		return err
	}

	for _, a := range alerts {
		record := []string{
			strconv.FormatInt(a.ProductID, 10),
			a.Barcode,
			a.ProductName,
			a.Brand,
			string(a.Category),
			string(a.StockStatus),
			a.StockStatus.Label(),
			strconv.Itoa(a.CurrentStock),
			strconv.Itoa(a.DaysOfStock),
			strconv.Itoa(a.ForecastedDailyUnits),
			strconv.Itoa(a.SuggestedReorderQty),
			string(a.Confidence),
			a.ForecastDate.Format(domain.DateLayout),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// AlertExporter uploads alert CSVs under prefix/YYYY-MM-DD/alerts-<unix>.csv
type AlertExporter struct {
	store  storage.ObjectStorage
	prefix string
	now    func() time.Time
}

func NewAlertExporter(store storage.ObjectStorage, prefix string) *AlertExporter {
	return &AlertExporter{store: store, prefix: prefix, now: time.Now}
}

// Export renders alerts for forecastDate and returns the object key written.
func (e *AlertExporter) Export(ctx context.Context, forecastDate time.Time, alerts []domain.ForecastResult) (string, error) {
	var buf bytes.Buffer
	if err := WriteAlertsCSV(&buf, alerts); err != nil {
		return "", fmt.Errorf("failed to render alerts csv: %w", err)
	}

	key := path.Join(e.prefix, forecastDate.Format(domain.DateLayout), fmt.Sprintf("alerts-%d.csv", e.now().Unix()))
	if err := e.store.UploadObject(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("alerts", len(alerts)).Msg("report: alerts exported")
	return key, nil
}

// ListExports returns uploaded alert CSVs, newest key first. A zero day lists every
// export under the prefix.
func (e *AlertExporter) ListExports(ctx context.Context, day time.Time) ([]storage.ObjectInfo, error) {
	prefix := e.prefix
	if !day.IsZero() {
		prefix = path.Join(e.prefix, day.Format(domain.DateLayout))
	}
	if prefix != "" {
		prefix += "/"
	}

	objects, err := e.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })

	return objects, nil
}
