package session

import (
	"hash/fnv"
	"sync"
)

// registryShards keeps unrelated calls off the same lock.
const registryShards = 16

// Registry is a concurrency-safe store of live sessions keyed by call id.
// GetOrCreate is atomic: two racing start frames for the same call id
// observe one session, with the second call a no-op.
type Registry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].sessions = make(map[string]*CallSession)
	}
	return r
}

func (r *Registry) shard(callSid string) *registryShard {
	h := fnv.New32a()
	h.Write([]byte(callSid))
	return &r.shards[h.Sum32()%registryShards]
}

// GetOrCreate returns the session for callSid, creating it when absent.
// The second return value reports whether a new session was created.
func (r *Registry) GetOrCreate(callSid, phoneNumber string) (*CallSession, bool) {
	s := r.shard(callSid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[callSid]; ok {
		return existing, false
	}
	created := New(callSid, phoneNumber)
	s.sessions[callSid] = created
	return created, true
}

// Get returns the session for callSid, if one exists.
func (r *Registry) Get(callSid string) (*CallSession, bool) {
	s := r.shard(callSid)
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[callSid]
	return sess, ok
}

// Remove drops the session for callSid. Safe to call for unknown ids.
func (r *Registry) Remove(callSid string) {
	s := r.shard(callSid)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callSid)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		n += len(r.shards[i].sessions)
		r.shards[i].mu.RUnlock()
	}
	return n
}

// Each calls fn for every live session. Used for best-effort cleanup at
// shutdown; fn must not call back into the registry shard it runs under.
func (r *Registry) Each(fn func(*CallSession)) {
	for i := range r.shards {
		r.shards[i].mu.RLock()
		sessions := make([]*CallSession, 0, len(r.shards[i].sessions))
		for _, s := range r.shards[i].sessions {
			sessions = append(sessions, s)
		}
		r.shards[i].mu.RUnlock()
		for _, s := range sessions {
			fn(s)
		}
	}
}
