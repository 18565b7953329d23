package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLoad(t *testing.T) {
	before := testutil.ToFloat64(DatasetLoadsTotal.WithLabelValues("test_world", "success"))
	RecordLoad("test_world", 10*time.Millisecond, 187, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(DatasetLoadsTotal.WithLabelValues("test_world", "success")))
	assert.Equal(t, float64(187), testutil.ToFloat64(DatasetRows.WithLabelValues("test_world")))

	// 失败时不覆盖行数
	RecordLoad("test_world", time.Millisecond, 0, errors.New("boom"))
	assert.Equal(t, float64(1), testutil.ToFloat64(DatasetLoadsTotal.WithLabelValues("test_world", "failure")))
	assert.Equal(t, float64(187), testutil.ToFloat64(DatasetRows.WithLabelValues("test_world")))
}

func TestRecordRenderAndExport(t *testing.T) {
	RecordRender("test_report", 200, 5*time.Millisecond)
	RecordRender("test_report", 400, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(RendersTotal.WithLabelValues("test_report", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(RendersTotal.WithLabelValues("test_report", "400")))

	before := testutil.ToFloat64(ExportsTotal.WithLabelValues("failure"))
	RecordExport(errors.New("disk full"))
	assert.Equal(t, before+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("failure")))
}
