package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/memberhub/backend/internal/auth"
	"github.com/memberhub/backend/internal/profiles"
)

type stubResolver struct {
	identity auth.ResolvedIdentity
	ok       bool
}

func (s stubResolver) Resolve(*http.Request) (auth.ResolvedIdentity, bool) {
	return s.identity, s.ok
}

type stubProvider struct {
	mu        sync.Mutex
	calls     int
	nextUID   string
	createErr error
	claimsErr error
}

func (s *stubProvider) CreateAccount(context.Context, auth.AccountSpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.nextUID, nil
}

func (s *stubProvider) SetClaims(context.Context, string, auth.Claims) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.claimsErr
}

func (s *stubProvider) VerifySessionCookie(context.Context, string) (auth.VerifiedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return auth.VerifiedSession{}, auth.ErrSessionInvalid
}

type stubStore struct {
	mu        sync.Mutex
	calls     int
	documents map[string]profiles.Profile
	listErr   error
}

func newStubStore(documents ...profiles.Profile) *stubStore {
	store := &stubStore{documents: make(map[string]profiles.Profile)}
	for _, document := range documents {
		store.documents[document.UID] = document
	}
	return store
}

func (s *stubStore) Get(_ context.Context, uid string) (profiles.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	document, ok := s.documents[uid]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return document, nil
}

func (s *stubStore) Exists(_ context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	_, ok := s.documents[uid]
	return ok, nil
}

func (s *stubStore) List(context.Context) ([]profiles.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	documents := make([]profiles.Profile, 0, len(s.documents))
	for _, document := range s.documents {
		documents = append(documents, document)
	}
	return documents, nil
}

func (s *stubStore) Set(_ context.Context, uid string, profile profiles.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	profile.UID = uid
	s.documents[uid] = profile
	return nil
}

func (s *stubStore) Update(_ context.Context, uid string, update profiles.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	document, ok := s.documents[uid]
	if !ok {
		return profiles.ErrNotFound
	}
	if update.Committee != nil {
		document.Committee = *update.Committee
	}
	s.documents[uid] = document
	return nil
}

func (s *stubStore) Delete(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	delete(s.documents, uid)
	return nil
}

func (s *stubStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type capturedReport struct {
	err  error
	tags map[string]string
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []capturedReport
}

func (r *recordingReporter) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, capturedReport{err: err, tags: tags})
}

func (r *recordingReporter) Flush() {}
