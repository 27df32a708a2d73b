package account

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/justyntemme/unithost/pkg/framework/debug"
)

// Store keys.
const (
	KeyUserName    = "/account/userName"
	KeyDisplayName = "/account/displayName"
	KeyAvatarETag  = "/account/avatarEtag"
)

const avatarFile = "avatar"

// Service exposes the cached profile of the signed-in user. Every mutation
// flushes the store and then notifies subscribers, even if the flush failed.
type Service struct {
	store     Store
	configDir string
	log       *debug.Logger

	mu   sync.Mutex
	subs map[int]func()
	next int
}

// NewService returns a service over store. The avatar image lives in configDir.
func NewService(store Store, configDir string, log *debug.Logger) *Service {
	if log == nil {
		log = debug.Default().With("account")
	}
	return &Service{
		store:     store,
		configDir: configDir,
		log:       log,
		subs:      make(map[int]func()),
	}
}

// DisplayName returns the user's profile name.
func (s *Service) DisplayName() string { return s.store.Read(KeyDisplayName) }

// UserSlug returns the user's account name.
func (s *Service) UserSlug() string { return s.store.Read(KeyUserName) }

// AvatarETag returns the entity tag of the cached avatar.
func (s *Service) AvatarETag() string { return s.store.Read(KeyAvatarETag) }

// AvatarPath returns the cached avatar file, or "" if there is none.
func (s *Service) AvatarPath() string {
	path := filepath.Join(s.configDir, avatarFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SetProfile records the signed-in user.
func (s *Service) SetProfile(userName, displayName string) error {
	s.store.Write(KeyUserName, userName)
	s.store.Write(KeyDisplayName, displayName)
	return s.commit()
}

// SetAvatarETag records the entity tag of a freshly stored avatar.
func (s *Service) SetAvatarETag(etag string) error {
	s.store.Write(KeyAvatarETag, etag)
	return s.commit()
}

// Clear forgets the user, as after signing out.
func (s *Service) Clear() error {
	s.store.Write(KeyUserName, "")
	s.store.Write(KeyDisplayName, "")
	s.store.Write(KeyAvatarETag, "")
	return s.commit()
}

func (s *Service) commit() error {
	err := s.store.Flush()
	if err != nil {
		s.log.Warn("flush: %v", err)
	}
	s.publish()
	return err
}

// Subscribe calls fn after every change until cancel is called.
func (s *Service) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) publish() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
