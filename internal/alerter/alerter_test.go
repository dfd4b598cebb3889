package alerter

import (
	"errors"
	"testing"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	name    string
	subject string
	body    string
	err     error
}

func (c *captured) Name() string { return c.name }

func (c *captured) Send(subject, body string) error {
	c.subject, c.body = subject, body
	return c.err
}

func sampleReport() *report.Report {
	rep := report.New(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC))
	rep.Sections = append(rep.Sections, report.Section{Task: "sla", Scalars: []report.Scalar{
		{Dataset: "historical", Name: "sla_ratio", Value: 0.72},
		{Dataset: "simulated", Name: "sla_ratio", Value: 0.91},
		{Dataset: "historical", Name: "out_of_order", Value: 3},
	}})
	return rep
}

func TestCheck(t *testing.T) {
	assert.True(t, check(0.7, 0.8, "<"))
	assert.False(t, check(0.8, 0.8, "<"))
	assert.True(t, check(0.8, 0.8, "<="))
	assert.True(t, check(3, 0, ">"))
	assert.True(t, check(1, 1, "=="))
	assert.False(t, check(1, 1, "!="))
	assert.False(t, check(1, 1, "~"))
}

func TestAlerter_Run(t *testing.T) {
	cfg := &config.AlerterConfig{Enabled: true, Rules: []config.AlerterRule{
		{Name: "low sla", TaskName: "sla", Metric: "sla_ratio", Operator: "<", Threshold: 0.8},
		{Name: "clock skew", TaskName: "sla", Dataset: "historical", Metric: "out_of_order", Operator: ">", Threshold: 0},
		{Name: "missing", TaskName: "waiting", Metric: "x", Operator: ">", Threshold: 0},
	}}
	mail := &captured{name: "email"}
	a, err := NewAlerter(cfg, []model.Notifier{mail}, logger.Nop())
	require.NoError(t, err)

	violations := a.Evaluate(sampleReport())
	require.Len(t, violations, 2)
	assert.Equal(t, "historical", violations[0].Dataset)
	assert.Equal(t, 0.72, violations[0].Value)

	n, err := a.Run(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Go2GateSpectra Alert Summary (2 Triggered)", mail.subject)
	assert.Contains(t, mail.body, "<table>")
	assert.Contains(t, mail.body, "clock skew")
}

func TestAlerter_NotifierFailureIsReported(t *testing.T) {
	cfg := &config.AlerterConfig{Rules: []config.AlerterRule{{Name: "r", TaskName: "sla", Metric: "sla_ratio", Operator: "<", Threshold: 1}}}
	ok := &captured{name: "nats"}
	broken := &captured{name: "email", err: errors.New("smtp down")}
	a, err := NewAlerter(cfg, []model.Notifier{broken, ok}, logger.Nop())
	require.NoError(t, err)

	n, err := a.Run(sampleReport())
	assert.Equal(t, 2, n)
	assert.ErrorContains(t, err, "smtp down")
	assert.NotEmpty(t, ok.subject, "remaining notifiers still run")
}

func TestNewAlerter_InvalidRule(t *testing.T) {
	_, err := NewAlerter(&config.AlerterConfig{Rules: []config.AlerterRule{{Name: "r", TaskName: "sla", Metric: "m", Operator: "=~"}}}, nil, logger.Nop())
	assert.Error(t, err)
	_, err = NewAlerter(&config.AlerterConfig{Rules: []config.AlerterRule{{Name: "r", Operator: "<"}}}, nil, logger.Nop())
	assert.Error(t, err)
}
