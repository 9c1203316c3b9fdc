package core

// stats.go accumulates run statistics and deduplicated warnings.

import "sort"

// warningCollector folds per-row issues into bounded, per-type warnings.
// The first message of each type is kept verbatim; later occurrences only
// bump the count, so the report stays small for arbitrarily large files.
type warningCollector struct {
	order  []string
	byType map[string]*Warning
}

func newWarningCollector() *warningCollector {
	return &warningCollector{byType: make(map[string]*Warning)}
}

// Add records one issue.
func (c *warningCollector) Add(issue ValidationIssue) {
	if w, ok := c.byType[issue.Type]; ok {
		w.Count++
		// Keep the highest severity seen for the type.
		if severityRank(issue.Severity) > severityRank(w.Severity) {
			w.Severity = issue.Severity
		}
		return
	}
	c.order = append(c.order, issue.Type)
	c.byType[issue.Type] = &Warning{
		Type:     issue.Type,
		Message:  issue.Message,
		Severity: issue.Severity,
		Count:    1,
	}
}

// AddAll records a batch of issues.
func (c *warningCollector) AddAll(issues []ValidationIssue) {
	for _, issue := range issues {
		c.Add(issue)
	}
}

// Info records a one-off informational warning.
func (c *warningCollector) Info(issueType, message string) {
	c.Add(ValidationIssue{Type: issueType, Message: message, Severity: SeverityInfo})
}

// List returns the collected warnings, errors first, then warnings, then
// info, keeping first-seen order within each severity.
func (c *warningCollector) List() []Warning {
	out := make([]Warning, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, *c.byType[t])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].Severity) > severityRank(out[j].Severity)
	})
	return out
}

func severityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}
