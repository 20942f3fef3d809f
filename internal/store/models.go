package store

import (
	"strings"
	"time"
)

// InstallKind describes how an item was installed locally.
type InstallKind string

const (
	InstallKindUnknown   InstallKind = "Unknown"
	InstallKindInstaller InstallKind = "Installer"
	InstallKindPortable  InstallKind = "Portable"
)

// ParseInstallKind decodes a persisted install kind. Unknown strings decode
// to InstallKindUnknown rather than failing, so rows written by newer builds
// stay readable.
func ParseInstallKind(value string) InstallKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "installer":
		return InstallKindInstaller
	case "portable":
		return InstallKindPortable
	default:
		return InstallKindUnknown
	}
}

// InstallPhase tracks the progress of a long-running install operation.
type InstallPhase string

const (
	PhaseNone        InstallPhase = ""
	PhasePending     InstallPhase = "pending"
	PhaseDownloading InstallPhase = "downloading"
	PhaseInstalling  InstallPhase = "installing"
	PhaseInstalled   InstallPhase = "installed"
	PhaseFailed      InstallPhase = "failed"
	PhaseCancelled   InstallPhase = "cancelled"
)

// ParseInstallPhase decodes a persisted phase. Unknown strings decode to
// PhaseNone, the explicit "no operation recorded" default.
func ParseInstallPhase(value string) InstallPhase {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pending":
		return PhasePending
	case "downloading":
		return PhaseDownloading
	case "installing":
		return PhaseInstalling
	case "installed":
		return PhaseInstalled
	case "failed":
		return PhaseFailed
	case "cancelled":
		return PhaseCancelled
	default:
		return PhaseNone
	}
}

// IsTransient reports whether the phase marks an operation that should not
// outlive the process that started it.
func (p InstallPhase) IsTransient() bool {
	switch p {
	case PhasePending, PhaseDownloading, PhaseInstalling, PhaseCancelled:
		return true
	default:
		return false
	}
}

// InstallState is one row of linkage and installation facts for a local
// library item. LocalItemID is the row identity and is never empty.
type InstallState struct {
	LocalItemID        string
	RemoteItemID       string
	RemoteCollectionID string
	ServerOrigin       string
	RemoteContentHash  string
	LocalContentHash   string
	InstallKind        InstallKind
	InstalledPath      string
	ArchivePath        string
	InstallRootPath    string
	IsInstalled        bool
	InstalledAt        *time.Time
	LastValidatedAt    *time.Time

	InstallPhase  InstallPhase
	LastAttemptAt *time.Time
	StatusNote    string

	// Merged secondary launch entry, present when a local item carries a
	// linked companion app.
	MergedAppID      string
	MergedBaseItemID string
	LaunchPath       string
	LaunchArgs       string
	MergedSyncedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRemoteLink reports whether the row is linked to a remote catalog entry.
func (s InstallState) HasRemoteLink() bool {
	return strings.TrimSpace(s.RemoteItemID) != ""
}

// ClearInstallFacts resets local installation fields while preserving
// identity and merge linkage. Used by the default uninstall path.
func (s *InstallState) ClearInstallFacts() {
	s.InstalledPath = ""
	s.ArchivePath = ""
	s.InstallRootPath = ""
	s.IsInstalled = false
	s.InstalledAt = nil
	s.InstallPhase = PhaseNone
	s.StatusNote = ""
}

// Identity is the subset of InstallState written by the matcher.
type Identity struct {
	LocalItemID        string
	RemoteItemID       string
	RemoteCollectionID string
	ServerOrigin       string
	RemoteContentHash  string
	LocalContentHash   string
	InstallKind        InstallKind
}

// PhaseStats counts rows per install phase.
type PhaseStats map[InstallPhase]int

// DatabaseHealth captures diagnostic information about the state database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalRows        int
	Error            string
}
