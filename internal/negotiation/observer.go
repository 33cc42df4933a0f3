// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import "github.com/ManuGH/mediagate/internal/media"

// SourceObserver wraps the native readiness and error signals of a media
// runtime. Each registration returns a func that detaches it; detach must be
// idempotent.
type SourceObserver interface {
	// OnReadyOnce fires fn at most once when enough data is buffered to
	// begin playback.
	OnReadyOnce(fn func()) (detach func())
	// OnError fires fn on every playback error, including per-candidate
	// failures on runtimes that report them.
	OnError(fn func(err error)) (detach func())
	// OnUserActivate fires fn on direct user interaction with the surface.
	OnUserActivate(fn func()) (detach func())
	// CurrentSourceURI is the source the runtime is currently attempting.
	// Some runtimes report "" once every candidate is exhausted.
	CurrentSourceURI() string
}

// Surface is the display surface a session negotiates for.
type Surface interface {
	SourceObserver
	Category() media.Category
	// DefaultSource reports a single source attached directly to the
	// surface; when present it replaces the candidate list.
	DefaultSource() (media.Source, bool)
	// ReplaceSources installs the pruned candidate list.
	ReplaceSources(sources []media.Source)
	// Play requests playback start.
	Play()
}
