package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/geo"
)

func TestValidateStoreProvider(t *testing.T) {
	t.Parallel()

	got, err := validateStoreProvider("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", got)

	got, err = validateStoreProvider(" Memory ")
	require.NoError(t, err)
	assert.Equal(t, "memory", got)

	_, err = validateStoreProvider("postgres")
	assert.Error(t, err)
}

func TestValidateCronExpression(t *testing.T) {
	t.Parallel()

	got, err := validateCronExpression(" 0 6 * * * ")
	require.NoError(t, err)
	assert.Equal(t, "0 6 * * *", got)

	_, err = validateCronExpression("")
	assert.Error(t, err)
	_, err = validateCronExpression("61 * * * *")
	assert.Error(t, err)
	_, err = validateCronExpression("* * *")
	assert.Error(t, err)
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	got, err := validateBaseURL("", "http://localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", got)

	got, err = validateBaseURL("https://api.example.org/", "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org", got)

	_, err = validateBaseURL("ftp://example.org", "")
	assert.Error(t, err)
	_, err = validateBaseURL("http://", "")
	assert.Error(t, err)
}

func TestValidateNumber(t *testing.T) {
	t.Parallel()

	n, err := validateNumber("", 120, 1, 3600)
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	n, err = validateNumber("30", 120, 1, 3600)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = validateNumber("0", 120, 1, 3600)
	assert.Error(t, err)
	_, err = validateNumber("abc", 120, 1, 3600)
	assert.Error(t, err)
}

func TestParseLatLon(t *testing.T) {
	t.Parallel()

	got, err := parseLatLon("48.85, 2.35")
	require.NoError(t, err)
	assert.Equal(t, geo.LatLon{Lat: 48.85, Lon: 2.35}, got)

	for _, in := range []string{"48.85", "a,b", "91,0", "0,181"} {
		_, err := parseLatLon(in)
		assert.Error(t, err, in)
	}
}

func TestParsePixelOffset(t *testing.T) {
	t.Parallel()

	got, err := parsePixelOffset("-3,12.5")
	require.NoError(t, err)
	assert.Equal(t, geo.PixelOffset{Y: -3, X: 12.5}, got)

	_, err = parsePixelOffset("1,2,3")
	assert.Error(t, err)
}

func TestMaskSensitiveData(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(not set)", maskSensitiveData("", "*"))
	assert.Equal(t, "***", maskSensitiveData("short", "*"))
	assert.Equal(t, "AKIA...CDEF", maskSensitiveData("AKIA1234567890ABCDEF", "*"))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", formatDuration(2*time.Minute))
	assert.Equal(t, "1.5h", formatDuration(90*time.Minute))
}
