// Package observability lets topoview report what it is doing without the
// libraries depending on a metrics backend.
//
// Each area has a hook interface with a no-op default. The program that owns
// the backend installs implementations once at startup; library code asks the
// registry for the current hooks at the call site:
//
//	m := observability.NewMetrics(prometheus.NewRegistry())
//	observability.SetPipelineHooks(m)
//	observability.SetSessionHooks(m)
//
//	hooks := observability.Pipeline()
//	hooks.OnLayoutStart(ctx, "layered", len(g.Nodes()))
//	err := g.RunLayout()
//	hooks.OnLayoutComplete(ctx, "layered", time.Since(start), err)
//
// [Metrics] implements every interface with Prometheus collectors and is
// what `topoview serve` installs.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks observes layout and rendering.
type PipelineHooks interface {
	OnLayoutStart(ctx context.Context, layout string, nodeCount int)
	OnLayoutComplete(ctx context.Context, layout string, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes cache lookups and writes. keyType is "layout" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// KubeHooks observes Kubernetes API calls, e.g. ("patch", "nodes").
type KubeHooks interface {
	OnRequest(ctx context.Context, verb, resource string)
	OnResponse(ctx context.Context, verb, resource string, duration time.Duration, err error)
}

// SessionHooks observes live surface sessions.
type SessionHooks interface {
	// OnSessionChange reports the number of connected clients after one
	// joined or left.
	OnSessionChange(clients int)
	// OnMessage records a handled client message by type.
	OnMessage(msgType string, err error)
	// OnFrame records a broadcast frame of size bytes and how many clients
	// missed it because their queue was full.
	OnFrame(size, dropped int)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopKubeHooks ignores every event.
type NoopKubeHooks struct{}

func (NoopKubeHooks) OnRequest(context.Context, string, string)                        {}
func (NoopKubeHooks) OnResponse(context.Context, string, string, time.Duration, error) {}

// NoopSessionHooks ignores every event.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSessionChange(int)     {}
func (NoopSessionHooks) OnMessage(string, error) {}
func (NoopSessionHooks) OnFrame(int, int)        {}

// slot holds the installed hooks of one area. Reads are lock-free so hot
// paths can fetch hooks per call.
type slot[T any] struct {
	def T
	cur atomic.Pointer[T]
}

func (s *slot[T]) get() T {
	if p := s.cur.Load(); p != nil {
		return *p
	}
	return s.def
}

// set installs h. A nil h is ignored.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.cur.Store(&h)
}

func (s *slot[T]) reset() { s.cur.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{def: NoopCacheHooks{}}
	kubeSlot     = slot[KubeHooks]{def: NoopKubeHooks{}}
	sessionSlot  = slot[SessionHooks]{def: NoopSessionHooks{}}
)

func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }
func SetCacheHooks(h CacheHooks)       { cacheSlot.set(h) }
func SetKubeHooks(h KubeHooks)         { kubeSlot.set(h) }
func SetSessionHooks(h SessionHooks)   { sessionSlot.set(h) }

func Pipeline() PipelineHooks { return pipelineSlot.get() }
func Cache() CacheHooks       { return cacheSlot.get() }
func Kube() KubeHooks         { return kubeSlot.get() }
func Session() SessionHooks   { return sessionSlot.get() }

// Reset restores the no-op defaults.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	kubeSlot.reset()
	sessionSlot.reset()
}
