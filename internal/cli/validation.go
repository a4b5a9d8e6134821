package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AI2HU/satlens/internal/geo"
)

// validateStoreProvider validates the store provider, defaulting to sqlite
func validateStoreProvider(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	switch input {
	case "":
		return "sqlite", nil
	case "sqlite", "memory":
		return input, nil
	}
	return "", fmt.Errorf("invalid store provider: %s (must be sqlite or memory)", input)
}

// validateCronExpression validates a standard 5-field cron expression
func validateCronExpression(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("cron expression is required")
	}
	if _, err := cron.ParseStandard(input); err != nil {
		return "", fmt.Errorf("invalid cron expression: %s (%v)", input, err)
	}
	return input, nil
}

// validateBaseURL validates an http(s) URL, returning def for empty input
func validateBaseURL(input, def string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return "", fmt.Errorf("base URL must start with http:// or https://")
	}
	if u, err := url.Parse(input); err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base URL: %s", input)
	}
	return strings.TrimRight(input, "/"), nil
}

// validateNumber validates numeric input within a range, returning def for empty input
func validateNumber(input string, def, min, max int) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}

	num, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s (enter a positive integer)", input)
	}

	if num < min || num > max {
		return 0, fmt.Errorf("number must be between %d and %d, got: %d", min, max, num)
	}

	return num, nil
}

// parseLatLon parses "lat,lon"
func parseLatLon(input string) (geo.LatLon, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return geo.LatLon{}, fmt.Errorf("invalid coordinate: %q (expected lat,lon)", input)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.LatLon{}, fmt.Errorf("invalid latitude: %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.LatLon{}, fmt.Errorf("invalid longitude: %q", parts[1])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geo.LatLon{}, fmt.Errorf("coordinate out of range: %g,%g", lat, lon)
	}
	return geo.LatLon{Lat: lat, Lon: lon}, nil
}

// parsePixelOffset parses "y,x"
func parsePixelOffset(input string) (geo.PixelOffset, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return geo.PixelOffset{}, fmt.Errorf("invalid offset: %q (expected y,x)", input)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.PixelOffset{}, fmt.Errorf("invalid y offset: %q", parts[0])
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.PixelOffset{}, fmt.Errorf("invalid x offset: %q", parts[1])
	}
	return geo.PixelOffset{Y: y, X: x}, nil
}

// maskSensitiveData masks sensitive data for display
func maskSensitiveData(data string, maskChar string) string {
	if data == "" {
		return "(not set)"
	}
	if len(data) <= 8 {
		return strings.Repeat(maskChar, 3)
	}
	return data[:4] + "..." + data[len(data)-4:]
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
