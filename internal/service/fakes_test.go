package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/arizkuren/skillbluff/internal/domain"
)

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.reply, g.err
}

func (g *fakeGenerator) Model() string { return "fake-model" }

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeSkillStore struct {
	mu        sync.Mutex
	skills    map[string]*domain.Skill
	createErr error
	listErr   error
}

func newFakeSkillStore() *fakeSkillStore {
	return &fakeSkillStore{skills: make(map[string]*domain.Skill)}
}

func (s *fakeSkillStore) Create(_ context.Context, skill *domain.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.skills[skill.ID]; ok {
		return errors.New("duplicate id")
	}
	cp := *skill
	s.skills[skill.ID] = &cp
	return nil
}

func (s *fakeSkillStore) GetByID(_ context.Context, id string) (*domain.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skill, ok := s.skills[id]
	if !ok {
		return nil, domain.ErrSkillNotFound
	}
	cp := *skill
	return &cp, nil
}

func (s *fakeSkillStore) GetRandom(ctx context.Context) (*domain.Skill, error) {
	all := s.sorted()
	if len(all) == 0 {
		return nil, domain.ErrSkillNotFound
	}
	return &all[0], nil
}

func (s *fakeSkillStore) ListTop(_ context.Context, page, limit int) ([]domain.Skill, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	all := s.sorted()
	start := page * limit
	if start >= len(all) {
		return []domain.Skill{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *fakeSkillStore) ListForSitemap(_ context.Context) ([]domain.SitemapEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.SitemapEntry
	for _, sk := range s.sorted() {
		out = append(out, domain.SitemapEntry{ID: sk.ID, CreatedAt: sk.CreatedAt})
	}
	return out, nil
}

func (s *fakeSkillStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.skills)
}

func (s *fakeSkillStore) sorted() []domain.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, *sk)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VotesCount != out[j].VotesCount {
			return out[i].VotesCount > out[j].VotesCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type fakeVoteStore struct {
	mu        sync.Mutex
	voters    map[string]map[string]bool
	known     map[string]bool
	recordErr error
}

func newFakeVoteStore(skillIDs ...string) *fakeVoteStore {
	known := make(map[string]bool)
	for _, id := range skillIDs {
		known[id] = true
	}
	return &fakeVoteStore{voters: make(map[string]map[string]bool), known: known}
}

func (s *fakeVoteStore) RecordVote(_ context.Context, skillID, clientKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return 0, s.recordErr
	}
	if !s.known[skillID] {
		return 0, domain.ErrSkillNotFound
	}
	if s.voters[skillID] == nil {
		s.voters[skillID] = make(map[string]bool)
	}
	s.voters[skillID][clientKey] = true
	return len(s.voters[skillID]), nil
}

func (s *fakeVoteStore) CountBySkill(_ context.Context, skillID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voters[skillID]), nil
}

type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = buf.Bytes()
	f.mu.Unlock()
	return nil
}

func (f *fakeObjectStorage) GetURL(key string) string { return "memory://" + key }

func (f *fakeObjectStorage) EnsureBucket(context.Context) error { return nil }

func (f *fakeObjectStorage) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// longContent returns markdown comfortably above the 100 character minimum.
func longContent(words int) string {
	return "# Guide\n\n" + strings.TrimSpace(strings.Repeat("word ", words))
}

const validReply = `Here you go!
` + "```json" + `
{
  "name": "ignored-by-coercion",
  "display_name": "How To Fold Water",
  "description": "A precise method for folding liquids that never works.",
  "language": "en",
  "tags": ["useless", "home", "not-a-tag"],
  "difficulty": "impossible",
  "uselessness_score": 9,
  "content": "# Folding Water

Step one: fill a bowl with water. Step two: grab a corner of the water. Step three: fold it in half very gently.",
  "warnings": ["Water will not fold"],
  "original_prompt": "how to fold water"
}
` + "```"
