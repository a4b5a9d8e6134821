package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI2HU/satlens/internal/metrics"
)

func TestFormatHealth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Green+"Excellent"+Reset, FormatHealth(metrics.HealthExcellent))
	assert.Equal(t, Yellow+"Moderate"+Reset, FormatHealth(metrics.HealthModerate))
	assert.Equal(t, Red+"Very Poor"+Reset, FormatHealth(metrics.ClassifyHealth(0)))
	assert.Equal(t, Gray+"unknown"+Reset, FormatHealth(metrics.Health("unknown")))
}

func TestFormatLabelValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LabelStyle+"Store:"+Reset+" "+ValueStyle+"sqlite"+Reset, FormatLabelValue("Store:", "sqlite"))
}
