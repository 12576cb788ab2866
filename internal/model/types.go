package model

// Default file names used inside the work directory.
const (
	// ManifestFile is the generated load-list consumed by the game server.
	ManifestFile = "workshop.lua"
	// PendingFile lists item ids found outdated during the last update run.
	PendingFile = "addons_to_update"
	// CheckpointFile holds the last synchronized epoch timestamp.
	CheckpointFile = "last_updated"
	// StagingDir is where unpacked addon contents are gathered before copying.
	StagingDir = "addons"
)

// Archive file extensions produced by the download client.
const (
	// NativeExt is the extension of the native package container.
	NativeExt = ".gma"
	// GenericExt is the extension of the LZMA-wrapped generic archive.
	GenericExt = ".bin"
)

// CollectionID identifies a curated group of workshop items.
type CollectionID string

// ItemID identifies a single downloadable workshop item.
type ItemID string

// String returns the raw identifier.
func (id CollectionID) String() string { return string(id) }

// String returns the raw identifier.
func (id ItemID) String() string { return string(id) }

// ItemMetadata is the per-item information fetched on every run.
type ItemMetadata struct {
	// ID is the workshop item id.
	ID ItemID
	// Title is the display title (empty if the API omitted it).
	Title string
	// TimeUpdated is the last-modified epoch in seconds; nil when absent.
	TimeUpdated *int64
}

// HasTimeUpdated reports whether the remote API returned a last-updated time.
func (m ItemMetadata) HasTimeUpdated() bool {
	return m.TimeUpdated != nil
}

// Classification is the change detector's verdict for one item.
type Classification int

const (
	// Current means the item has not changed since the checkpoint.
	Current Classification = iota
	// Outdated means the item changed after the checkpoint and must be downloaded.
	Outdated
	// Unknown means the item carried no last-updated time.
	Unknown
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	switch c {
	case Current:
		return "current"
	case Outdated:
		return "outdated"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ArchiveKind is the container format of a downloaded item.
type ArchiveKind int

const (
	// ArchiveNone means no archive was located.
	ArchiveNone ArchiveKind = iota
	// ArchiveNative is a .gma package the unpacking tool reads directly.
	ArchiveNative
	// ArchiveGeneric is a .bin archive that must be unwrapped and renamed first.
	ArchiveGeneric
)

// String returns the name of the archive kind.
func (k ArchiveKind) String() string {
	switch k {
	case ArchiveNative:
		return "native"
	case ArchiveGeneric:
		return "generic"
	default:
		return "none"
	}
}
