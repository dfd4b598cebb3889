package alerter

import (
	"errors"
	"fmt"
	"strings"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/gomarkdown/markdown"
)

var operators = map[string]func(v, threshold float64) bool{
	">":  func(v, t float64) bool { return v > t },
	">=": func(v, t float64) bool { return v >= t },
	"<":  func(v, t float64) bool { return v < t },
	"<=": func(v, t float64) bool { return v <= t },
	"==": func(v, t float64) bool { return v == t },
	"!=": func(v, t float64) bool { return v != t },
}

// Violation is a rule that matched a scalar of the report.
type Violation struct {
	Rule    config.AlerterRule
	Dataset string
	Value   float64
}

// Alerter evaluates the finished report against predefined rules and
// triggers notifications if rules are violated.
type Alerter struct {
	rules     []config.AlerterRule
	notifiers []model.Notifier
	log       *logger.Logger
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, notifiers []model.Notifier, log *logger.Logger) (*Alerter, error) {
	for _, r := range cfg.Rules {
		if _, ok := operators[r.Operator]; !ok {
			return nil, fmt.Errorf("rule '%s': unsupported operator '%s'", r.Name, r.Operator)
		}
		if r.TaskName == "" || r.Metric == "" {
			return nil, fmt.Errorf("rule '%s': task_name and metric are required", r.Name)
		}
	}
	return &Alerter{rules: cfg.Rules, notifiers: notifiers, log: log.Named("alerter")}, nil
}

// check compares value against threshold using operator.
func check(value, threshold float64, operator string) bool {
	cmp, ok := operators[operator]
	return ok && cmp(value, threshold)
}

// Evaluate returns every rule violation in rep. A rule without a dataset is
// checked against every dataset of its task.
func (a *Alerter) Evaluate(rep *report.Report) []Violation {
	var out []Violation
	for _, rule := range a.rules {
		sec, ok := rep.Section(rule.TaskName)
		if !ok {
			a.log.Warn("Alert rule references a task without results", logger.String("rule", rule.Name), logger.String("task", rule.TaskName))
			continue
		}
		for _, s := range sec.Scalars {
			if s.Name != rule.Metric || (rule.Dataset != "" && s.Dataset != rule.Dataset) {
				continue
			}
			if check(s.Value, rule.Threshold, rule.Operator) {
				out = append(out, Violation{Rule: rule, Dataset: s.Dataset, Value: s.Value})
			}
		}
	}
	return out
}

// Run evaluates rep and sends one consolidated notification through every
// notifier. It returns the number of violations.
func (a *Alerter) Run(rep *report.Report) (int, error) {
	violations := a.Evaluate(rep)
	if len(violations) == 0 {
		a.log.Info("No alert rule triggered", logger.Int("rules", len(a.rules)))
		return 0, nil
	}
	a.log.Info("Alerter evaluation completed", logger.Int("triggered", len(violations)))

	subject := fmt.Sprintf("Go2GateSpectra Alert Summary (%d Triggered)", len(violations))
	body := string(markdown.ToHTML([]byte(Summary(rep.RunID, violations)), nil, nil))

	var errs []error
	for _, n := range a.notifiers {
		if err := n.Send(subject, body); err != nil {
			a.log.Error("Failed to send alert notification", logger.String("notifier", n.Name()), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		a.log.Info("Alert notification sent", logger.String("notifier", n.Name()))
	}
	return len(violations), errors.Join(errs...)
}

// Summary renders the violations as a markdown document.
func Summary(runID string, violations []Violation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Go2GateSpectra Alert Summary\n\nRun `%s` triggered the following rules:\n\n", runID)
	b.WriteString("| Rule | Task | Dataset | Metric | Value | Condition |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.4f | %s %g |\n",
			v.Rule.Name, v.Rule.TaskName, v.Dataset, v.Rule.Metric, v.Value, v.Rule.Operator, v.Rule.Threshold)
	}
	return b.String()
}
