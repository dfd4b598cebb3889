package probe

import (
	"testing"
	"time"

	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject string
	data    []byte
	drained bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func sampleReport() *report.Report {
	rep := report.New(time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC))
	rep.Datasets = []report.DatasetInfo{{Label: "historical", RawRows: 12, Retained: 10, Dropped: 2}}
	rep.Sections = []report.Section{{Task: "sla", Scalars: []report.Scalar{{Dataset: "historical", Name: "sla_ratio", Value: 0.7}}}}
	return rep
}

func TestPublisher_PublishesDecodableSummary(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "gatespectra.reports", logger.Nop())
	require.NoError(t, p.Publish(sampleReport()))
	p.Close()

	assert.Equal(t, "gatespectra.reports", conn.subject)
	assert.True(t, conn.drained)

	s, err := DecodeSummary(conn.data)
	require.NoError(t, err)
	m := s.AsMap()
	assert.Equal(t, "2024-01-08_09-30-00", m["run_id"])
	assert.Equal(t, "2024-01-08T09:30:00Z", m["generated_at"])

	datasets := m["datasets"].([]any)
	require.Len(t, datasets, 1)
	assert.EqualValues(t, 10, datasets[0].(map[string]any)["retained"])

	scalars := m["scalars"].([]any)
	require.Len(t, scalars, 1)
	assert.Equal(t, 0.7, scalars[0].(map[string]any)["value"])
}

func TestDecodeSummary_Garbage(t *testing.T) {
	_, err := DecodeSummary([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
