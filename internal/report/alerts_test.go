package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/storage"
)

type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (f *fakeStorage) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func sampleAlerts() []domain.ForecastResult {
	day := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	return []domain.ForecastResult{
		{ProductID: 1, Barcode: "899", ProductName: "Chitato, Sapi Panggang", Brand: "Chitato", Category: domain.CategorySnack,
			StockStatus: domain.StockOutOfStock, ForecastedDailyUnits: 10, SuggestedReorderQty: 80, Confidence: domain.ConfidenceMedium, ForecastDate: day},
		{ProductID: 2, Barcode: "900", ProductName: "Ultra Milk", Brand: "Ultra", Category: domain.CategoryDairy,
			StockStatus: domain.StockLow, CurrentStock: 30, DaysOfStock: 5, ForecastedDailyUnits: 6, SuggestedReorderQty: 22,
			Confidence: domain.ConfidenceHigh, ForecastDate: day},
	}
}

func TestWriteAlertsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlertsCSV(&buf, sampleAlerts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, alertHeaders, records[0])
	assert.Equal(t, "Chitato, Sapi Panggang", records[1][2])
	assert.Equal(t, "OUT_OF_STOCK", records[1][5])
	assert.Equal(t, "Out of stock", records[1][6])
	assert.Equal(t, "Low", records[2][6])
	assert.Equal(t, "2", records[2][0])
	assert.Equal(t, "22", records[2][10])
	assert.Equal(t, "2024-06-11", records[2][12])
}

func TestWriteAlertsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlertsCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAlertExporter(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
	exporter := NewAlertExporter(store, "alerts")
	exporter.now = func() time.Time { return time.Unix(1718100000, 0) }

	key, err := exporter.Export(context.Background(), time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), sampleAlerts())
	require.NoError(t, err)
	assert.Equal(t, "alerts/2024-06-11/alerts-1718100000.csv", key)
	assert.Equal(t, "text/csv", store.types[key])
	assert.Contains(t, string(store.objects[key]), "Ultra Milk")

	store.err = errors.New("bucket gone")
	_, err = exporter.Export(context.Background(), time.Now(), nil)
	assert.Error(t, err)
}

func TestAlertExporterListExports(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
	exporter := NewAlertExporter(store, "alerts")
	ctx := context.Background()
	june10 := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	june11 := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	for i, day := range []time.Time{june10, june11, june11} {
		exporter.now = func() time.Time { return time.Unix(1718100000+int64(i), 0) }
		_, err := exporter.Export(ctx, day, sampleAlerts())
		require.NoError(t, err)
	}
	store.objects["alerts-archive/old.csv"] = []byte("x")

	all, err := exporter.ListExports(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alerts/2024-06-11/alerts-1718100002.csv", all[0].Key)

	day, err := exporter.ListExports(ctx, june10)
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "alerts/2024-06-10/alerts-1718100000.csv", day[0].Key)
	assert.Positive(t, day[0].Size)
}
