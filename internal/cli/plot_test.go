package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	path, _ := savedBundle(t, dir)
	plots := filepath.Join(dir, "diag")

	if err := runCommand(t, newPlotCmd(), path, "-d", plots); err != nil {
		t.Fatalf("plot: %v", err)
	}

	want := []string{"mask.png", "phi.png", "cell_types.png", "q_hist.png", "q_0.png", "q_4.png", "q_8.png"}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Errorf("missing plot %s: %v", name, err)
		}
	}
}

func TestPlotCommandMinimalBundle(t *testing.T) {
	dir := t.TempDir()
	path := minimalBundle(t, dir)
	plots := filepath.Join(dir, "diag")

	if err := runCommand(t, newPlotCmd(), path, "-d", plots); err != nil {
		t.Fatalf("plot: %v", err)
	}

	for _, name := range []string{"mask.png", "phi.png"} {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Errorf("missing plot %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(plots, "q_hist.png")); err == nil {
		t.Error("a bundle without link fractions should not produce fraction plots")
	}
}

func TestPlotCommandMissingFile(t *testing.T) {
	err := runCommand(t, newPlotCmd(), filepath.Join(t.TempDir(), "absent.nc"))
	if err == nil {
		t.Fatal("expected an error for a missing bundle")
	}
}
