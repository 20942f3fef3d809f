package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ludex/internal/store"
	"ludex/internal/testsupport"
)

func TestRecoverStaleOperationsBoundary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	threshold := 2 * time.Hour

	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "stale", RemoteItemID: "r1"})
	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "fresh", RemoteItemID: "r2"})
	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "terminal", RemoteItemID: "r3"})

	// At (or beyond) the threshold by the time recovery runs.
	if !st.SetInstallPhaseAt(ctx, "stale", store.PhaseDownloading, "downloading archive", time.Now().Add(-threshold)) {
		t.Fatal("SetInstallPhaseAt failed")
	}
	// Comfortably newer than the threshold.
	if !st.SetInstallPhaseAt(ctx, "fresh", store.PhaseInstalling, "running installer", time.Now().Add(-threshold).Add(time.Minute)) {
		t.Fatal("SetInstallPhaseAt failed")
	}
	// Already terminal: must be left alone regardless of age.
	if !st.SetInstallPhaseAt(ctx, "terminal", store.PhaseInstalled, "", time.Now().Add(-3*threshold)) {
		t.Fatal("SetInstallPhaseAt failed")
	}

	recovered := st.RecoverStaleOperations(ctx, threshold)
	if recovered != 1 {
		t.Fatalf("expected 1 recovered row, got %d", recovered)
	}

	stale := st.Get(ctx, "stale")
	if stale.InstallPhase != store.PhaseFailed {
		t.Fatalf("stale row should be failed, got %v", stale.InstallPhase)
	}
	if stale.StatusNote != store.StaleRecoveryNote {
		t.Fatalf("expected recovery note, got %q", stale.StatusNote)
	}

	if fresh := st.Get(ctx, "fresh"); fresh.InstallPhase != store.PhaseInstalling {
		t.Fatalf("fresh row should be untouched, got %v", fresh.InstallPhase)
	}
	if terminal := st.Get(ctx, "terminal"); terminal.InstallPhase != store.PhaseInstalled {
		t.Fatalf("terminal row should be untouched, got %v", terminal.InstallPhase)
	}
}

func TestRecoverStaleOperationsIncludesCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "cancelled", RemoteItemID: "r1"})
	st.SetInstallPhaseAt(ctx, "cancelled", store.PhaseCancelled, "stopped by user", time.Now().Add(-3*time.Hour))

	if recovered := st.RecoverStaleOperations(ctx, 2*time.Hour); recovered != 1 {
		t.Fatalf("expected cancelled row to be recovered, got %d", recovered)
	}
	if got := st.Get(ctx, "cancelled"); got.InstallPhase != store.PhaseFailed {
		t.Fatalf("expected failed phase, got %v", got.InstallPhase)
	}
}

func TestValidateCorrectsMissingInstall(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	installedAt := time.Now().UTC()
	state := &store.InstallState{
		LocalItemID:   "item-1",
		InstalledPath: filepath.Join(t.TempDir(), "gone", "game.exe"),
		IsInstalled:   true,
		InstalledAt:   &installedAt,
	}

	if changed := st.Validate(state); !changed {
		t.Fatal("expected Validate to report a correction")
	}
	if state.IsInstalled {
		t.Fatal("expected IsInstalled cleared")
	}
	if state.InstalledAt != nil {
		t.Fatal("expected InstalledAt cleared on invalidation")
	}
	if state.LastValidatedAt == nil {
		t.Fatal("expected LastValidatedAt set")
	}
}

func TestValidateDetectsReappearedInstall(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "game.exe")
	if err := os.WriteFile(path, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}

	state := &store.InstallState{LocalItemID: "item-1", InstalledPath: path, IsInstalled: false}
	if changed := st.Validate(state); !changed {
		t.Fatal("expected correction for reappeared install")
	}
	if !state.IsInstalled {
		t.Fatal("expected IsInstalled set")
	}
}

func TestValidateNoChangeWhenConsistent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "game.exe")
	if err := os.WriteFile(path, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}

	state := &store.InstallState{LocalItemID: "item-1", InstalledPath: path, IsInstalled: true}
	if changed := st.Validate(state); changed {
		t.Fatal("expected no correction for consistent state")
	}
}

func TestStatsGroupsByPhase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "a", RemoteItemID: "1"})
	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "b", RemoteItemID: "2"})
	testsupport.SeedIdentity(t, st, store.Identity{LocalItemID: "c", RemoteItemID: "3"})
	st.SetInstallPhase(ctx, "a", store.PhaseInstalled, "")
	st.SetInstallPhase(ctx, "b", store.PhaseInstalled, "")

	stats := st.Stats(ctx)
	if stats[store.PhaseInstalled] != 2 {
		t.Fatalf("expected 2 installed, got %d", stats[store.PhaseInstalled])
	}
	if stats[store.PhaseNone] != 1 {
		t.Fatalf("expected 1 with no phase, got %d", stats[store.PhaseNone])
	}
}

func TestCheckHealthReportsIntegrity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("unexpected missing columns: %v", health.MissingColumns)
	}
}
