package wsync

// Classification names the relationship between the local and remote copies
// of a managed path.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassInSync
	ClassContentDiffers
	ClassLocalOnly
	ClassRemoteOnly
	ClassNeitherExists
)

// String implements fmt.Stringer.
func (c Classification) String() string {
	switch c {
	case ClassInSync:
		return "In Sync"
	case ClassContentDiffers:
		return "Content Differs"
	case ClassLocalOnly:
		return "Local Only"
	case ClassRemoteOnly:
		return "GCS Only"
	case ClassNeitherExists:
		return "Neither Exists"
	default:
		return "Unknown"
	}
}

// Action is what a pull does for one managed path.
type Action int

const (
	ActionNone Action = iota
	ActionPull
	ActionOverwrite
	ActionSkipIgnored
	ActionSkipExists
	ActionConflictTypeMismatch
	ActionSyncDirectory
	ActionNoCounterpart
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionPull:
		return "Pull"
	case ActionOverwrite:
		return "Overwrite"
	case ActionSkipIgnored:
		return "Skip (Ignored)"
	case ActionSkipExists:
		return "Skip (Local Exists)"
	case ActionConflictTypeMismatch:
		return "Conflict (Type Mismatch)"
	case ActionSyncDirectory:
		return "Sync Directory"
	case ActionNoCounterpart:
		return "No GCS counterpart"
	default:
		return "None"
	}
}

// Mutates reports whether executing the action touches the local filesystem.
func (a Action) Mutates() bool {
	switch a {
	case ActionPull, ActionOverwrite, ActionSyncDirectory:
		return true
	default:
		return false
	}
}

// Classify relates the two sides of a managed path. In Sync demands hard
// evidence: both sides present, both plain files, and both hashes known and
// equal. Every other both-present combination, including directories and
// files whose hash could not be determined, counts as Content Differs so a
// sync is never skipped on a guess.
func Classify(local, remote Status) Classification {
	switch {
	case local.Presence == Present && remote.Presence == Present:
		if local.Kind == KindFile && remote.Kind == KindFile &&
			local.MD5 != "" && local.MD5 == remote.MD5 {
			return ClassInSync
		}

		return ClassContentDiffers
	case local.Presence == Present:
		return ClassLocalOnly
	case remote.Presence == Present:
		return ClassRemoteOnly
	default:
		return ClassNeitherExists
	}
}

// DeriveAction decides what pull does for one managed path. Exclusion wins
// over everything. Remote files only land on existing local files when
// forced, and never on top of a local directory. Remote prefixes, including
// ambiguous single-child listings, sync recursively unless the local side is
// a plain file.
func DeriveAction(local, remote Status, ignored, force bool) Action {
	if ignored {
		return ActionSkipIgnored
	}

	remoteDir := remote.Kind == KindDirectory || remote.Kind == KindAmbiguousSingleChild

	switch {
	case remote.Presence == Present && remote.Kind == KindFile:
		switch {
		case local.Presence == Present && local.Kind == KindFile:
			if force {
				return ActionOverwrite
			}

			return ActionSkipExists
		case local.Presence == Present:
			return ActionConflictTypeMismatch
		default:
			return ActionPull
		}
	case remote.Presence == Present && remoteDir:
		if local.Presence == Present && local.Kind == KindFile {
			return ActionConflictTypeMismatch
		}

		return ActionSyncDirectory
	case remote.Presence == Absent && local.Presence == Present:
		return ActionNoCounterpart
	default:
		return ActionNone
	}
}
