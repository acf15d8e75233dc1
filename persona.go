package respondsdk

import (
	"log"
	"sort"
	"sync"
)

// ──────────────────────────────────────────────
// Persona — named response voice
// ──────────────────────────────────────────────

// Persona is a named response style with its own generation instructions.
// The set of personas is closed: everything is registered up front, the
// engine never registers personas at runtime.
type Persona struct {
	Name         string `json:"name" yaml:"name"`
	DisplayName  string `json:"display_name,omitempty" yaml:"display_name"`
	Description  string `json:"description,omitempty" yaml:"description"`
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
}

// safePersona is the hard-coded fallback when the whole priority chain
// fails to resolve. Deliberately bland.
var safePersona = Persona{
	Name:         "neutral",
	DisplayName:  "Neutral",
	Description:  "conservative fallback voice",
	SystemPrompt: "Reply briefly and politely, in a neutral tone.",
}

// PersonaRegistry holds the known personas.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]Persona
}

// NewPersonaRegistry creates a registry pre-seeded with the safe fallback.
func NewPersonaRegistry(personas ...Persona) *PersonaRegistry {
	r := &PersonaRegistry{personas: map[string]Persona{safePersona.Name: safePersona}}
	for _, p := range personas {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a persona. Nameless personas are ignored.
func (r *PersonaRegistry) Register(p Persona) {
	if p.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[p.Name] = p
}

// Get looks up a persona by name.
func (r *PersonaRegistry) Get(name string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[name]
	return p, ok
}

// Names returns the registered persona names, sorted.
func (r *PersonaRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.personas))
	for n := range r.personas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ──────────────────────────────────────────────
// PersonaSelector — priority-chain resolution
// ──────────────────────────────────────────────

// PersonaConfig drives the selection priority chain.
type PersonaConfig struct {
	Default           string            `json:"default" yaml:"default"`
	OwnerPersona      string            `json:"owner_persona" yaml:"owner_persona"`
	AdaptiveSwitching bool              `json:"adaptive_switching" yaml:"adaptive_switching"`
	UserOverrides     map[string]string `json:"user_overrides,omitempty" yaml:"user_overrides"`
	ChatOverrides     map[string]string `json:"chat_overrides,omitempty" yaml:"chat_overrides"`
}

// DefaultPersonaConfig returns the production defaults.
func DefaultPersonaConfig() PersonaConfig {
	return PersonaConfig{
		Default:      "alphasnob",
		OwnerPersona: "owner",
	}
}

// PersonaSelector resolves the persona for a message. Pure: identical
// inputs always yield the identical persona.
type PersonaSelector struct {
	registry *PersonaRegistry
	config   PersonaConfig
}

// NewPersonaSelector creates a selector over a registry.
func NewPersonaSelector(registry *PersonaRegistry, config PersonaConfig) *PersonaSelector {
	if registry == nil {
		registry = NewPersonaRegistry()
	}
	return &PersonaSelector{registry: registry, config: config}
}

// Select walks the priority chain top-down, first match wins:
// per-user override, per-chat override, adaptive owner short-circuit,
// the user's preferred persona, the configured default. Unknown names at
// any step fall through to the next level. When everything is exhausted
// the selector fails closed to the safe persona. The returned reason names
// the level that matched.
func (s *PersonaSelector) Select(profile *UserProfile, chatID string) (Persona, string) {
	if profile != nil {
		if p, ok := s.resolve(s.config.UserOverrides[profile.UserID], "user-override"); ok {
			return p, "user-override"
		}
	}
	if p, ok := s.resolve(s.config.ChatOverrides[chatID], "chat-override"); ok {
		return p, "chat-override"
	}
	if s.config.AdaptiveSwitching && profile != nil && profile.RelationshipLevel == LevelOwner {
		if p, ok := s.resolve(s.config.OwnerPersona, "adaptive-owner"); ok {
			return p, "adaptive-owner"
		}
	}
	if profile != nil {
		if p, ok := s.resolve(profile.PreferredPersona, "preferred"); ok {
			return p, "preferred"
		}
	}
	if p, ok := s.resolve(s.config.Default, "default"); ok {
		return p, "default"
	}
	log.Printf("[PERSONA] no persona resolved for chat %s, falling back to %q", chatID, safePersona.Name)
	return safePersona, "safe-fallback"
}

// resolve checks a candidate name against the registry. An unregistered
// name is logged once per lookup and treated as no match.
func (s *PersonaSelector) resolve(name, level string) (Persona, bool) {
	if name == "" {
		return Persona{}, false
	}
	p, ok := s.registry.Get(name)
	if !ok {
		log.Printf("[PERSONA] %s names unknown persona %q, falling through", level, name)
		return Persona{}, false
	}
	return p, true
}
