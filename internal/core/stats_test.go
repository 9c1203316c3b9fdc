package core

import (
	"testing"
)

// ============================================================================
// Warning Collector Tests
// ============================================================================

func TestWarningCollector_DeduplicatesByType(t *testing.T) {
	c := newWarningCollector()
	for i := 0; i < 50; i++ {
		c.Add(ValidationIssue{
			Type:     IssueImplausiblePace,
			Message:  "line 2: pace out of range",
			Severity: SeverityWarning,
		})
	}

	list := c.List()
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
	if list[0].Count != 50 {
		t.Errorf("Count = %d, want 50", list[0].Count)
	}
	if list[0].Message != "line 2: pace out of range" {
		t.Errorf("Message = %q, want first occurrence kept", list[0].Message)
	}
}

func TestWarningCollector_OrdersBySeverity(t *testing.T) {
	c := newWarningCollector()
	c.Info(IssueUnknownFormat, "layout not recognized")
	c.Add(ValidationIssue{Type: IssueImplausiblePace, Severity: SeverityWarning, Message: "w"})
	c.Add(ValidationIssue{Type: IssueValidationError, Severity: SeverityError, Message: "e"})

	list := c.List()
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	want := []Severity{SeverityError, SeverityWarning, SeverityInfo}
	for i, w := range list {
		if w.Severity != want[i] {
			t.Errorf("list[%d].Severity = %q, want %q", i, w.Severity, want[i])
		}
	}
}

func TestWarningCollector_KeepsHighestSeverity(t *testing.T) {
	c := newWarningCollector()
	c.Add(ValidationIssue{Type: IssueHeartRateRange, Severity: SeverityWarning, Message: "w"})
	c.Add(ValidationIssue{Type: IssueHeartRateRange, Severity: SeverityError, Message: "e"})

	list := c.List()
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
	if list[0].Severity != SeverityError {
		t.Errorf("Severity = %q, want error after escalation", list[0].Severity)
	}
	if list[0].Count != 2 {
		t.Errorf("Count = %d, want 2", list[0].Count)
	}
}
