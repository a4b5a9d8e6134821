package objectstore

import (
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"github.com/AI2HU/satlens/internal/db"
)

func TestReportKey(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "reports/agri/20240309T083506Z.json", ReportKey("agri", at))
	assert.Equal(t, "reports/night-lights/latest.json", LatestKey("night-lights"))
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey"}, true},
		{"no such bucket", minio.ErrorResponse{Code: "NoSuchBucket"}, true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied"}, false},
		{"network", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyError(tt.err, "download")
			assert.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, db.ErrNotFound))
		})
	}
}
