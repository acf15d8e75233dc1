package respondsdk

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// ──────────────────────────────────────────────
// Relationship levels
// ──────────────────────────────────────────────

// RelationshipLevel is the ordered trust tier gating response multipliers.
type RelationshipLevel string

const (
	LevelStranger     RelationshipLevel = "stranger"
	LevelAcquaintance RelationshipLevel = "acquaintance"
	LevelFriend       RelationshipLevel = "friend"
	LevelCloseFriend  RelationshipLevel = "close_friend"
	// LevelOwner is privileged: assigned externally, never auto-derived.
	LevelOwner RelationshipLevel = "owner"
)

var levelRank = map[RelationshipLevel]int{
	LevelStranger:     0,
	LevelAcquaintance: 1,
	LevelFriend:       2,
	LevelCloseFriend:  3,
	LevelOwner:        4,
}

// Rank returns the ordering of a level. Unknown levels rank as stranger.
func (l RelationshipLevel) Rank() int {
	return levelRank[l]
}

// ──────────────────────────────────────────────
// UserProfile
// ──────────────────────────────────────────────

// UserProfile is the per-user relationship and trust record. Created on the
// first message from a user, mutated on every subsequent one. Profiles are
// never deleted, only archived.
type UserProfile struct {
	UserID            string            `json:"user_id"`
	Username          string            `json:"username,omitempty"`
	RelationshipLevel RelationshipLevel `json:"relationship_level"`
	TrustScore        float64           `json:"trust_score"` // -1.0..1.0
	InteractionCount  int               `json:"interaction_count"`
	PositiveCount     int               `json:"positive_count"`
	NegativeCount     int               `json:"negative_count"`
	PreferredPersona  string            `json:"preferred_persona,omitempty"`
	FirstSeen         time.Time         `json:"first_seen"`
	LastSeen          time.Time         `json:"last_seen"`
	Archived          bool              `json:"archived,omitempty"`
}

// Summary renders a short human-readable profile line for logs and ops.
func (p *UserProfile) Summary() string {
	return fmt.Sprintf("%s: %s trust=%+.2f interactions=%d",
		p.UserID, p.RelationshipLevel, p.TrustScore, p.InteractionCount)
}

// ──────────────────────────────────────────────
// ProfileRepository — pluggable persistence
// ──────────────────────────────────────────────

// ProfileRepository is the storage backend for user profiles. Implementations
// live outside the engine (see store/ for Redis and SQLite adapters).
// Get returns (nil, nil) when the user is unknown.
type ProfileRepository interface {
	Get(userID string) (*UserProfile, error)
	Save(profile *UserProfile) error
}

// InMemoryProfileRepository is a thread-safe in-memory ProfileRepository.
// Data is lost on restart.
type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
}

// NewInMemoryProfileRepository creates an empty in-memory repository.
func NewInMemoryProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{profiles: make(map[string]*UserProfile)}
}

func (r *InMemoryProfileRepository) Get(userID string) (*UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryProfileRepository) Save(profile *UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

// ──────────────────────────────────────────────
// Trust markers
// ──────────────────────────────────────────────

// TrustMarkers are the word lists scanned on every interaction. Each match
// nudges the trust score by ±Adjustment, clamped to [-1, 1]. Matching is
// case-insensitive substring, same as the upstream profiler.
type TrustMarkers struct {
	Positive   []string `json:"positive"`
	Negative   []string `json:"negative"`
	Adjustment float64  `json:"adjustment"`
}

// DefaultTrustMarkers returns the bilingual production defaults.
func DefaultTrustMarkers() TrustMarkers {
	return TrustMarkers{
		Positive:   []string{"спасибо", "thanks", "thank you", "пожалуйста", "please"},
		Negative:   []string{"тупой", "stupid", "idiot", "заткнись", "shut up"},
		Adjustment: 0.1,
	}
}

// ──────────────────────────────────────────────
// ProfileStore
// ──────────────────────────────────────────────

// Upgrade thresholds: interaction counts at which the relationship level
// advances. Owner is never reachable through these.
const (
	ThresholdAcquaintance = 5
	ThresholdFriend       = 20
	ThresholdCloseFriend  = 100
)

// ProfileStore owns relationship and trust state per user, backed by a
// ProfileRepository. Updates for the same user are serialized; different
// users proceed independently.
type ProfileStore struct {
	repo    ProfileRepository
	markers TrustMarkers

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-user single-writer locks
	cache map[string]*UserProfile
}

// NewProfileStore creates a store over the given repository.
// A nil repository falls back to an in-memory one.
func NewProfileStore(repo ProfileRepository, markers TrustMarkers) *ProfileStore {
	if repo == nil {
		repo = NewInMemoryProfileRepository()
	}
	if markers.Adjustment <= 0 {
		markers.Adjustment = DefaultTrustMarkers().Adjustment
	}
	return &ProfileStore{
		repo:    repo,
		markers: markers,
		locks:   make(map[string]*sync.Mutex),
		cache:   make(map[string]*UserProfile),
	}
}

func (s *ProfileStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// load returns the cached profile, falling back to the repository.
// Caller must hold the user lock.
func (s *ProfileStore) load(userID string) (*UserProfile, error) {
	s.mu.Lock()
	p := s.cache[userID]
	s.mu.Unlock()
	if p != nil {
		return p, nil
	}
	p, err := s.repo.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrRepository, userID, err)
	}
	if p != nil {
		s.mu.Lock()
		s.cache[userID] = p
		s.mu.Unlock()
	}
	return p, nil
}

// GetOrCreate returns the profile for userID, creating a fresh stranger
// profile on first contact. An unknown user is never an error. The returned
// profile is a copy; the store's own state only changes under the user lock.
func (s *ProfileStore) GetOrCreate(userID, username string, now time.Time) (*UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	p, err := s.getOrCreateLocked(userID, username, now)
	cp := *p
	return &cp, err
}

func (s *ProfileStore) getOrCreateLocked(userID, username string, now time.Time) (*UserProfile, error) {
	p, err := s.load(userID)
	if p != nil {
		return p, err
	}
	// Fresh stranger; created even when the repository read failed, so one
	// storage hiccup cannot stall the conversation.
	p = &UserProfile{
		UserID:            userID,
		Username:          username,
		RelationshipLevel: LevelStranger,
		FirstSeen:         now,
		LastSeen:          now,
	}
	s.mu.Lock()
	s.cache[userID] = p
	s.mu.Unlock()
	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	log.Printf("[PROFILE] created %s (%s)", userID, username)
	return p, err
}

// RecordInteraction increments the interaction counter, scans the text
// against the trust marker lists and persists the result. Messages from an
// owner candidate (the owner's own outgoing text being collected for style
// learning) skip the trust scan: the owner talking does not vouch for
// anyone. Returns the updated profile; a repository error is reported but
// the in-memory update sticks.
func (s *ProfileStore) RecordInteraction(userID, username, text string, ownerCandidate bool, now time.Time) (*UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := s.getOrCreateLocked(userID, username, now)
	p.InteractionCount++
	p.LastSeen = now
	if username != "" {
		p.Username = username
	}

	if !ownerCandidate {
		pos, neg := s.scanMarkers(text)
		p.PositiveCount += pos
		p.NegativeCount += neg
		delta := float64(pos-neg) * s.markers.Adjustment
		if delta != 0 {
			p.TrustScore = clampRange(p.TrustScore+delta, -1, 1)
		}
	}

	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	cp := *p
	return &cp, err
}

func (s *ProfileStore) scanMarkers(text string) (pos, neg int) {
	lower := strings.ToLower(text)
	for _, m := range s.markers.Positive {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			pos++
		}
	}
	for _, m := range s.markers.Negative {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			neg++
		}
	}
	return pos, neg
}

// targetLevel maps an interaction count to the level it earns.
func targetLevel(count int) RelationshipLevel {
	switch {
	case count >= ThresholdCloseFriend:
		return LevelCloseFriend
	case count >= ThresholdFriend:
		return LevelFriend
	case count >= ThresholdAcquaintance:
		return LevelAcquaintance
	default:
		return LevelStranger
	}
}

// TryUpgrade advances the relationship level when the interaction count has
// crossed a threshold. The level only ever moves up, each crossing fires at
// most once, and owner is untouchable.
func (s *ProfileStore) TryUpgrade(userID string) (*UserProfile, bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := s.load(userID)
	if p == nil {
		return nil, false, err
	}
	if p.RelationshipLevel == LevelOwner {
		cp := *p
		return &cp, false, err
	}
	target := targetLevel(p.InteractionCount)
	if target.Rank() <= p.RelationshipLevel.Rank() {
		cp := *p
		return &cp, false, err
	}
	old := p.RelationshipLevel
	p.RelationshipLevel = target
	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	log.Printf("[PROFILE] %s upgraded %s -> %s (count=%d)", userID, old, target, p.InteractionCount)
	cp := *p
	return &cp, true, err
}

// SetOwner assigns the privileged owner level. This is the only path to it.
func (s *ProfileStore) SetOwner(userID string, now time.Time) (*UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := s.getOrCreateLocked(userID, "", now)
	p.RelationshipLevel = LevelOwner
	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	log.Printf("[PROFILE] %s assigned owner", userID)
	cp := *p
	return &cp, err
}

// SetPreferredPersona records the user's preferred persona name.
func (s *ProfileStore) SetPreferredPersona(userID, persona string, now time.Time) (*UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := s.getOrCreateLocked(userID, "", now)
	p.PreferredPersona = persona
	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	cp := *p
	return &cp, err
}

// Archive marks a profile archived. Profiles are never deleted.
func (s *ProfileStore) Archive(userID string) (*UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := s.load(userID)
	if p == nil {
		return nil, err
	}
	p.Archived = true
	if serr := s.repo.Save(p); serr != nil && err == nil {
		err = fmt.Errorf("%w: save %s: %v", ErrRepository, userID, serr)
	}
	cp := *p
	return &cp, err
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
