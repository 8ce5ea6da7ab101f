package billing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/iab"
)

// Session owns the bound IAB helper for the lifetime of the host bridge
// instance. The helper is the sole shared mutable resource; everything else
// borrows it through Helper().
//
// Invariant: initialized implies a non-nil helper. The flag flips to true
// only on full setup success and to false only through Release.
type Session struct {
	mu sync.RWMutex

	log     *zap.Logger
	factory iab.HelperFactory

	helper      iab.Helper
	initialized bool
}

func NewSession(log *zap.Logger, factory iab.HelperFactory) *Session {
	return &Session{
		log:     log,
		factory: factory,
	}
}

// Initialized reports whether setup completed successfully and the session
// has not been released since.
func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Helper returns the bound helper, or ErrNotInitialized.
func (s *Session) Helper() (iab.Helper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.helper, nil
}

// Setup binds a new helper and starts provider setup. listener receives the
// provider result; on success the session is initialized before listener
// runs. Returns ErrAlreadyInitialized when a helper is already bound (no
// re-setup), or the factory error when binding fails outright.
func (s *Session) Setup(rsaPublicKey string, listener iab.SetupFinishedListener) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}

	helper, err := s.factory(rsaPublicKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.helper = helper
	s.mu.Unlock()

	helper.StartSetup(func(result iab.Result) {
		if result.IsFailure() {
			s.log.Warn("Setup error", zap.String("result", result.String()))

			s.mu.Lock()
			if s.helper == helper {
				s.helper = nil
			}
			s.mu.Unlock()
			helper.Dispose()

			listener(result)
			return
		}

		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()

		s.log.Debug("Setup successful")
		listener(result)
	})
	return nil
}

// Release disposes the helper if present and clears the initialized flag.
// Idempotent; safe to call when nothing is bound.
func (s *Session) Release() {
	s.mu.Lock()
	helper := s.helper
	s.helper = nil
	s.initialized = false
	s.mu.Unlock()

	if helper != nil {
		helper.Dispose()
	}
}
