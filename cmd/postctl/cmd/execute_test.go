package cmd

import (
	"strings"
	"testing"

	"postpilot/internal/store"
)

func TestExecute_NothingDue(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "execute", "--data-dir", dir)
	if !strings.Contains(out, "Nothing due") {
		t.Errorf("expected empty-pass message, got: %s", out)
	}
}

func TestExecute_DryRunTransitionsDueRecords(t *testing.T) {
	dir := t.TempDir()

	execute(t, "stock", "--data-dir", dir, "--assign", "due soon")
	execute(t, "post-now", "--data-dir", dir, "--all")

	out := execute(t, "execute", "--data-dir", dir, "--dry-run")
	if !strings.Contains(out, "1 post(s) attempted") {
		t.Errorf("expected one attempt, got: %s", out)
	}

	records := loadRecords(t, dir)
	if records[0].Status != store.StatusDryRun {
		t.Errorf("expected dry_run status, got %s", records[0].Status)
	}
}

func TestExecute_NoPublisherConfigured(t *testing.T) {
	dir := t.TempDir()

	execute(t, "stock", "--data-dir", dir, "--assign", "no creds")
	execute(t, "post-now", "--data-dir", dir, "--all")
	execute(t, "execute", "--data-dir", dir)

	records := loadRecords(t, dir)
	if records[0].Status != store.StatusNoPublisher {
		t.Errorf("expected no_publisher status, got %s", records[0].Status)
	}
}
