// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package negotiation

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/mediagate/internal/capability"
	"github.com/ManuGH/mediagate/internal/media"
	"github.com/ManuGH/mediagate/internal/surface"
)

// outcomes collects emitted outcomes from any goroutine.
type outcomes struct {
	mu  sync.Mutex
	got []Outcome
}

func (o *outcomes) add(out Outcome) {
	o.mu.Lock()
	o.got = append(o.got, out)
	o.mu.Unlock()
}

func (o *outcomes) all() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome(nil), o.got...)
}

func (o *outcomes) kinds() []OutcomeKind {
	var kinds []OutcomeKind
	for _, out := range o.all() {
		kinds = append(kinds, out.Kind)
	}
	return kinds
}

// videoRuntime answers type queries for the video category only.
func videoRuntime(answers map[string]string) capability.Runtime {
	return capability.Runtime{Queries: map[media.Category]capability.CanPlayTypeFunc{
		media.CategoryVideo: capability.AnswerTable(answers),
	}}
}

func newTestNegotiator(t *testing.T, probe capability.Probe, device capability.Device) (*Negotiator, *outcomes) {
	t.Helper()
	got := &outcomes{}
	logger := zerolog.Nop()
	n, err := New(Config{
		Probe:          probe,
		Device:         device,
		Logger:         &logger,
		OnReady:        got.add,
		OnUnsupported:  got.add,
		OnNoCapability: got.add,
	})
	require.NoError(t, err)
	return n, got
}

func srcs(uris ...string) []media.Source {
	out := make([]media.Source, 0, len(uris))
	for _, u := range uris {
		out = append(out, media.Source{URI: u})
	}
	return out
}

// leakySurface ignores detach requests, like a runtime that keeps firing
// callbacks after the negotiator has lost interest.
type leakySurface struct {
	*surface.Simulated
}

func (l leakySurface) OnReadyOnce(fn func()) func() {
	l.Simulated.OnReadyOnce(fn)
	return func() {}
}

func (l leakySurface) OnError(fn func(error)) func() {
	l.Simulated.OnError(fn)
	return func() {}
}

func (l leakySurface) OnUserActivate(fn func()) func() {
	l.Simulated.OnUserActivate(fn)
	return func() {}
}

var errBoom = errors.New("decode failed")

func TestNew_RequiresProbe(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilProbe)
}

func TestLoad_RequiresSurface(t *testing.T) {
	n, _ := newTestNegotiator(t, videoRuntime(nil), capability.Device{})
	require.ErrorIs(t, n.Load(nil, srcs("a.mp4")), ErrNilSurface)
}

func TestLoad_NoCapabilityShortCircuit(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"audio/mpeg": "probably"}), capability.Device{})
	s := surface.NewSimulated(media.CategoryAudio, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, srcs("a.mp3")))

	require.Equal(t, []OutcomeKind{OutcomeNoCapability}, got.kinds())
	assert.Equal(t, StateNoCapability, n.State())
	assert.Equal(t, 0, s.Listeners())
	assert.Empty(t, s.Sources())
}

func TestLoad_AllSourcesNotPlayable(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "", "video/mp4": "no"}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, srcs("a.webm", "b.mp4")))

	outs := got.all()
	require.Len(t, outs, 1)
	assert.Equal(t, OutcomeUnsupported, outs[0].Kind)
	assert.Nil(t, outs[0].Selected)
	assert.Equal(t, 0, s.Listeners())
}

func TestLoad_EmptySourcesUnsupportedWithoutObservers(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(nil), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, nil))

	require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
	assert.Equal(t, 0, s.Listeners())
	assert.Empty(t, s.Sources())
}

func TestLoad_InvalidURIsAreDropped(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(nil), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, srcs("", "   ")))

	require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
}

func TestLoad_PrunesAndSelectsSurvivor(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{
		"video/quicktime": "",
		"video/webm":      "probably",
	}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, srcs("a.mov", "b.webm")))
	require.Equal(t, StateAwaitingReadiness, n.State())
	assert.Equal(t, srcs("b.webm"), s.Sources())
	assert.Empty(t, got.all())

	s.Run()

	outs := got.all()
	require.Len(t, outs, 1)
	assert.Equal(t, OutcomeReady, outs[0].Kind)
	require.NotNil(t, outs[0].Selected)
	assert.Equal(t, "b.webm", outs[0].Selected.URI)
	assert.Equal(t, "b.webm", outs[0].LastResortURI)
	assert.Equal(t, n.SessionID(), outs[0].SessionID)
	assert.Equal(t, 0, s.Listeners())
}

func TestLoad_UnknownVerdictIsKept(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{
		"video/x-matroska": "perhaps",
	}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, srcs("movie.mkv", "stream")))
	assert.Equal(t, srcs("movie.mkv", "stream"), s.Sources())

	s.FireReady()

	outs := got.all()
	require.Len(t, outs, 1)
	assert.Equal(t, OutcomeReady, outs[0].Kind)
	assert.Equal(t, "movie.mkv", outs[0].Selected.URI)
}

func TestLoad_QuirkyDeviceKeepsRejectedSource(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": ""})
	n, _ := newTestNegotiator(t, probe, capability.Device{UnreliableTypeProbe: true})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(s, []media.Source{{URI: "a.mp4", MimeType: "video/mp4"}}))

	assert.Equal(t, StateAwaitingReadiness, n.State())
	assert.Equal(t, []media.Source{{URI: "a.mp4"}}, s.Sources())
}

func TestLoad_DefaultSourceReplacesList(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"video/mp4": "maybe"}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource,
		surface.WithDefaultSource(media.Source{URI: "default.mp4"}))

	require.NoError(t, n.Load(s, srcs("ignored.webm")))
	assert.Equal(t, srcs("default.mp4"), s.Sources())

	s.Run()
	require.Len(t, got.all(), 1)
	assert.Equal(t, "default.mp4", got.all()[0].Selected.URI)
}

func TestLoad_PerSourceFamily(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": "probably", "video/webm": "probably"})

	t.Run("intermediate failure is ignored", func(t *testing.T) {
		n, got := newTestNegotiator(t, probe, capability.Device{})
		s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource, surface.WithFailing("a.mp4"))
		require.NoError(t, n.Load(s, srcs("a.mp4", "b.webm")))

		s.Run()

		outs := got.all()
		require.Len(t, outs, 1)
		assert.Equal(t, OutcomeReady, outs[0].Kind)
		assert.Equal(t, "b.webm", outs[0].Selected.URI)
	})

	t.Run("last resort failure is terminal", func(t *testing.T) {
		n, got := newTestNegotiator(t, probe, capability.Device{})
		s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource,
			surface.WithFailing("a.mp4", "b.webm"),
			surface.WithBaseURL("https://cdn.example/media"))
		require.NoError(t, n.Load(s, srcs("a.mp4", "b.webm")))

		s.Run()

		require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
		assert.Equal(t, 0, s.Listeners())
	})
}

func TestLoad_FinalOnlyFamily(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": "probably", "video/webm": "probably"})

	t.Run("silent advance reaches ready", func(t *testing.T) {
		n, got := newTestNegotiator(t, probe, capability.Device{})
		s := surface.NewSimulated(media.CategoryVideo, surface.FamilyFinalOnly, surface.WithFailing("a.mp4"))
		require.NoError(t, n.Load(s, srcs("a.mp4", "b.webm")))

		s.Run()

		outs := got.all()
		require.Len(t, outs, 1)
		assert.Equal(t, "b.webm", outs[0].Selected.URI)
	})

	t.Run("empty current source is terminal", func(t *testing.T) {
		n, got := newTestNegotiator(t, probe, capability.Device{})
		s := surface.NewSimulated(media.CategoryVideo, surface.FamilyFinalOnly, surface.WithFailing("a.mp4", "b.webm"))
		require.NoError(t, n.Load(s, srcs("a.mp4", "b.webm")))

		s.Run()

		require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
	})
}

func TestLoad_AtMostOneTerminalEvent(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": "probably", "video/webm": "probably"})
	n, got := newTestNegotiator(t, probe, capability.Device{})
	s := leakySurface{surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)}
	require.NoError(t, n.Load(s, srcs("a.mp4", "b.webm")))

	s.SetCurrentSourceURI("b.webm")
	s.FireError(errBoom)
	s.FireError(errBoom)
	s.FireReady()
	s.SetCurrentSourceURI("")
	s.FireError(errBoom)

	require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
	assert.Equal(t, StateUnsupported, n.State())
}

func TestLoad_ConcurrentCallbacksEmitOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	probe := videoRuntime(map[string]string{"video/webm": "probably"})
	for i := 0; i < 50; i++ {
		n, got := newTestNegotiator(t, probe, capability.Device{})
		s := leakySurface{surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)}
		require.NoError(t, n.Load(s, srcs("only.webm")))

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				s.FireError(errBoom)
			}()
			go func() {
				defer wg.Done()
				s.FireReady()
			}()
		}
		wg.Wait()

		require.Len(t, got.all(), 1, "iteration %d", i)
	}
}

func TestCancel_SuppressesOutcome(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}), capability.Device{})
	s := leakySurface{surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)}
	require.NoError(t, n.Load(s, srcs("a.webm")))

	n.Cancel()
	assert.Equal(t, StateCancelled, n.State())

	s.FireReady()
	s.FireError(errBoom)
	assert.Empty(t, got.all())

	n.Cancel()
	assert.Equal(t, StateCancelled, n.State())
}

func TestCancel_AfterTerminalIsNoop(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)
	require.NoError(t, n.Load(s, srcs("a.webm")))
	s.Run()

	n.Cancel()

	assert.Equal(t, StateReady, n.State())
	assert.Len(t, got.all(), 1)
}

func TestLoad_ReentrantLoadCancelsPriorSession(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}), capability.Device{})
	first := leakySurface{surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)}
	second := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)

	require.NoError(t, n.Load(first, srcs("one.webm")))
	firstID := n.SessionID()
	require.NoError(t, n.Load(second, srcs("two.webm")))
	require.NotEqual(t, firstID, n.SessionID())

	first.FireReady()
	assert.Empty(t, got.all())

	second.Run()
	outs := got.all()
	require.Len(t, outs, 1)
	assert.Equal(t, "two.webm", outs[0].Selected.URI)
	assert.Equal(t, n.SessionID(), outs[0].SessionID)
}

func TestLoad_FromOutcomeHandler(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/webm": "probably"})
	fallback := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)
	got := &outcomes{}
	logger := zerolog.Nop()

	var n *Negotiator
	n, err := New(Config{
		Probe:  probe,
		Logger: &logger,
		OnUnsupported: func(out Outcome) {
			got.add(out)
			require.NoError(t, n.Load(fallback, srcs("fallback.webm")))
		},
		OnReady: got.add,
	})
	require.NoError(t, err)

	require.NoError(t, n.Load(surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource), nil))
	fallback.Run()

	assert.Equal(t, []OutcomeKind{OutcomeUnsupported, OutcomeReady}, got.kinds())
}

func TestLoad_ActivationNudgesPlayback(t *testing.T) {
	n, _ := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}),
		capability.Device{RequiresActivation: true})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)
	require.NoError(t, n.Load(s, srcs("a.webm")))
	require.Equal(t, 3, s.Listeners())

	s.Activate()
	assert.Equal(t, 1, s.Plays())

	s.Run()
	s.Activate()
	assert.Equal(t, 1, s.Plays())
	assert.Equal(t, 0, s.Listeners())
}

func TestLoad_NoActivationHandlerByDefault(t *testing.T) {
	n, _ := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}), capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource)
	require.NoError(t, n.Load(s, srcs("a.webm")))

	assert.Equal(t, 2, s.Listeners())
	s.Activate()
	assert.Equal(t, 0, s.Plays())
}

func TestPlan_DoesNotTouchSession(t *testing.T) {
	n, got := newTestNegotiator(t, videoRuntime(map[string]string{
		"video/quicktime": "",
		"video/webm":      "probably",
	}), capability.Device{})

	plan := n.Plan(media.CategoryVideo, nil, []media.Source{
		{URI: ""},
		{URI: "a.mov"},
		{URI: "b.webm"},
		{URI: "live", MimeType: "video/webm"},
	})

	want := Plan{
		Category: media.CategoryVideo,
		Candidates: []media.Source{
			{URI: "b.webm"},
			{URI: "live", MimeType: "video/webm"},
		},
		Pruned: []PrunedSource{
			{Source: media.Source{URI: ""}, Reason: PruneInvalidURI},
			{Source: media.Source{URI: "a.mov"}, MimeType: "video/quicktime", Reason: PruneNotPlayable},
		},
		LastResortURI: "live",
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateIdle, n.State())
	assert.Empty(t, got.all())
}

func TestPlan_TerminalOutcomes(t *testing.T) {
	n, _ := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": ""}), capability.Device{})

	assert.Equal(t, OutcomeUnsupported, n.Plan(media.CategoryVideo, nil, nil).Terminal)
	assert.Equal(t, OutcomeNoCapability, n.Plan(media.CategoryAudio, nil, srcs("a.mp3")).Terminal)
	assert.Equal(t, OutcomeUnsupported, n.Plan(media.CategoryVideo, nil, srcs("a.webm")).Terminal)
	assert.Empty(t, n.Plan(media.CategoryVideo, nil, srcs("stream")).Terminal)
}

func TestPlan_DefaultSource(t *testing.T) {
	n, _ := newTestNegotiator(t, videoRuntime(map[string]string{"video/webm": "probably"}), capability.Device{})

	t.Run("valid default replaces the list", func(t *testing.T) {
		def := media.Source{URI: "main.webm"}
		plan := n.Plan(media.CategoryVideo, &def, srcs("a.webm", "b.webm"))
		assert.Empty(t, plan.Terminal)
		assert.True(t, plan.FromDefault)
		assert.Equal(t, srcs("main.webm"), plan.Candidates)
		assert.Equal(t, "main.webm", plan.LastResortURI)
	})

	t.Run("blank default falls back to the list", func(t *testing.T) {
		def := media.Source{URI: "  "}
		plan := n.Plan(media.CategoryVideo, &def, srcs("a.webm", "b.webm"))
		assert.Empty(t, plan.Terminal)
		assert.False(t, plan.FromDefault)
		assert.Equal(t, srcs("a.webm", "b.webm"), plan.Candidates)
		assert.Equal(t, "b.webm", plan.LastResortURI)
	})
}

func TestMatchScore(t *testing.T) {
	assert.Positive(t, matchScore("b.webm", "b.webm"))
	assert.Positive(t, matchScore("https://cdn.example/media/b.webm", "b.webm"))
	assert.Positive(t, matchScore("https://cdn.example/media/b.webm", "./media/b.webm"))
	assert.Zero(t, matchScore("https://cdn.example/media/ab.webm", "b.webm"))
	assert.Zero(t, matchScore("", "b.webm"))
	assert.Zero(t, matchScore("https://cdn.example/", "/"))
	// Decomposed and precomposed forms of the same name.
	assert.Positive(t, matchScore("https://cdn.example/cafe\u0301.webm", "caf\u00e9.webm"))

	// Exact beats any suffix; a longer suffix beats a shorter one.
	assert.Greater(t, matchScore("hd/clip.mp4", "hd/clip.mp4"), matchScore("hd/clip.mp4", "clip.mp4"))
	assert.Greater(t,
		matchScore("https://cdn.example/hd/clip.mp4", "hd/clip.mp4"),
		matchScore("https://cdn.example/hd/clip.mp4", "clip.mp4"))
}

func TestLoad_SuffixCollidingCandidates(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": "probably"})
	tests := []struct {
		name     string
		family   surface.Family
		sources  []string
		failing  string
		selected string
	}{
		{
			name:     "earlier longer path fails, shorter last resort still tried",
			family:   surface.FamilyPerSource,
			sources:  []string{"hd/clip.mp4", "clip.mp4"},
			failing:  "hd/clip.mp4",
			selected: "clip.mp4",
		},
		{
			name:     "final-only runtime walks past the longer path",
			family:   surface.FamilyFinalOnly,
			sources:  []string{"hd/clip.mp4", "clip.mp4"},
			failing:  "hd/clip.mp4",
			selected: "clip.mp4",
		},
		{
			name:     "ready on the longer path selects it",
			family:   surface.FamilyPerSource,
			sources:  []string{"clip.mp4", "hd/clip.mp4"},
			failing:  "clip.mp4",
			selected: "hd/clip.mp4",
		},
	}
	for _, tt := range tests {
		for _, base := range []string{"", "https://cdn.example/media"} {
			name := tt.name
			if base != "" {
				name += " with base URL"
			}
			t.Run(name, func(t *testing.T) {
				n, got := newTestNegotiator(t, probe, capability.Device{})
				opts := []surface.Option{surface.WithFailing(tt.failing)}
				if base != "" {
					opts = append(opts, surface.WithBaseURL(base))
				}
				s := surface.NewSimulated(media.CategoryVideo, tt.family, opts...)
				require.NoError(t, n.Load(s, srcs(tt.sources...)))

				s.Run()

				outs := got.all()
				require.Equal(t, []OutcomeKind{OutcomeReady}, got.kinds())
				require.NotNil(t, outs[0].Selected)
				assert.Equal(t, tt.selected, outs[0].Selected.URI)
				assert.Equal(t, 0, s.Listeners())
			})
		}
	}
}

func TestLoad_SuffixCollisionLastResortStillTerminal(t *testing.T) {
	probe := videoRuntime(map[string]string{"video/mp4": "probably"})
	n, got := newTestNegotiator(t, probe, capability.Device{})
	s := surface.NewSimulated(media.CategoryVideo, surface.FamilyPerSource,
		surface.WithFailing("clip.mp4", "hd/clip.mp4"),
		surface.WithBaseURL("https://cdn.example/media"))
	require.NoError(t, n.Load(s, srcs("clip.mp4", "hd/clip.mp4")))

	s.Run()

	require.Equal(t, []OutcomeKind{OutcomeUnsupported}, got.kinds())
}
