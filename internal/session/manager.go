package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ifconcept/gvail/internal/credential"
	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/provider"
	"github.com/ifconcept/gvail/internal/store"
)

// sessionKey is the fixed store key for the serialized active Session.
const sessionKey = "session"

// passwordKey is the fixed keyring key for the account password.
const passwordKey = "account-password"

// deleteTimeout bounds each best-effort account deletion.
const deleteTimeout = 15 * time.Second

// localPartPattern is the provider's address-format rule enforced
// locally before any network call.
var localPartPattern = regexp.MustCompile(`^[a-z0-9.]+$`)

// Secrets stores the account password outside the on-disk record.
// The default implementation is the system keyring.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// keyringSecrets backs Secrets with the system keyring.
type keyringSecrets struct{}

func (keyringSecrets) Get(key string) (string, error)  { return credential.Get(key) }
func (keyringSecrets) Set(key, value string) error     { return credential.Set(key, value) }
func (keyringSecrets) Delete(key string) error         { return credential.Delete(key) }

// Manager owns the single active mailbox Session: its creation,
// rotation, deletion, and durable persistence across restarts.
//
// Session-mutating operations (AutoGenerate, Regenerate, CustomCreate,
// Rotate) serialize on an in-flight guard so racing creations cannot
// interleave; the session persisted last becomes active.
type Manager struct {
	api     provider.API
	store   store.Store
	secrets Secrets
	prefix  string
	backoff time.Duration

	mu     sync.RWMutex
	active *model.Session

	opMu sync.Mutex

	domainMu     sync.Mutex
	cachedDomain *model.Domain
}

// NewManager creates a session manager using the system keyring for the
// account password. prefix is the namespace marker prepended to generated
// local-parts; backoff is the fixed auto-generate retry delay.
func NewManager(
	api provider.API,
	s store.Store,
	prefix string,
	backoff time.Duration,
) *Manager {
	return NewManagerWithSecrets(api, s, keyringSecrets{}, prefix, backoff)
}

// NewManagerWithSecrets is NewManager with an explicit secret store.
func NewManagerWithSecrets(
	api provider.API,
	s store.Store,
	secrets Secrets,
	prefix string,
	backoff time.Duration,
) *Manager {
	return &Manager{
		api:     api,
		store:   s,
		secrets: secrets,
		prefix:  prefix,
		backoff: backoff,
	}
}

// Active returns a copy of the active session, or false when none exists.
func (m *Manager) Active() (model.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return model.Session{}, false
	}
	return *m.active, true
}

// Token returns the active session's bearer token, or "" when absent.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ""
	}
	return m.active.Token
}

// Bootstrap attempts to adopt a previously persisted session. It returns
// false when no well-formed record exists, in which case the caller
// falls through to AutoGenerate. Malformed or partial records are
// discarded, never fatal.
func (m *Manager) Bootstrap(ctx context.Context) (model.Session, bool) {
	raw, err := m.store.Get(ctx, sessionKey)
	if err != nil {
		if !store.IsNotFound(err) {
			log.Printf("session: reading persisted record: %v", err)
		}
		return model.Session{}, false
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		log.Printf("session: discarding malformed record: %v", err)
		m.clearPersisted(ctx)
		return model.Session{}, false
	}

	password, err := m.secrets.Get(passwordKey)
	if err != nil || password == "" {
		log.Printf("session: discarding record without password: %v", err)
		m.clearPersisted(ctx)
		return model.Session{}, false
	}
	sess.Password = password

	if !sess.Complete() {
		m.clearPersisted(ctx)
		return model.Session{}, false
	}

	m.adopt(sess)
	return sess, true
}

// AutoGenerate provisions a fresh random mailbox, retrying indefinitely
// with a fixed backoff until it succeeds or ctx is canceled. This is the
// zero-friction path: the user must always end up with a working address.
// Any currently active session is displaced first; its provider-side
// account is deleted on a best-effort basis.
func (m *Manager) AutoGenerate(ctx context.Context) (model.Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.displaceActive(ctx)

	for {
		sess, err := m.provision(ctx, m.randomLocalPart())
		if err == nil {
			return sess, nil
		}
		log.Printf("session: auto-generate failed, retrying: %v", err)

		select {
		case <-ctx.Done():
			return model.Session{}, ctx.Err()
		case <-time.After(m.backoff):
		}
	}
}

// Regenerate provisions a fresh random mailbox exactly once. Unlike
// AutoGenerate it does not retry: the failure returns to the caller for
// a visible notification, with the previous session already displaced.
func (m *Manager) Regenerate(ctx context.Context) (model.Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.displaceActive(ctx)

	return m.provision(ctx, m.randomLocalPart())
}

// CustomCreate provisions a mailbox under a user-supplied local-part.
// Creation succeeding at the provider is the sole proof of availability.
// On any failure the previous session stays active and unchanged.
func (m *Manager) CustomCreate(
	ctx context.Context,
	localPart string,
) (model.Session, error) {
	localPart = strings.ToLower(strings.TrimSpace(localPart))
	if localPart == "" || !localPartPattern.MatchString(localPart) {
		return model.Session{}, ErrInvalidLocalPart
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	previous := m.snapshot()

	sess, err := m.provision(ctx, localPart)
	if err != nil {
		if provider.IsConflict(err) {
			return model.Session{}, fmt.Errorf("%w: %s", ErrAddressTaken, localPart)
		}
		return model.Session{}, err
	}

	if previous != nil {
		m.deleteAccountAsync(*previous)
	}
	return sess, nil
}

// Rotate replaces an expired session. The dead token is dropped before
// provisioning so it is never reused; the rest follows AutoGenerate's
// indefinite-retry policy.
func (m *Manager) Rotate(ctx context.Context) (model.Session, error) {
	m.mu.Lock()
	if m.active != nil {
		m.active.Token = ""
	}
	m.mu.Unlock()

	return m.AutoGenerate(ctx)
}

// provision runs one create-account-and-mint-token attempt and, on
// success, persists and adopts the resulting session.
func (m *Manager) provision(
	ctx context.Context,
	localPart string,
) (model.Session, error) {
	domain, err := m.resolveDomain(ctx)
	if err != nil {
		return model.Session{}, err
	}

	address := localPart + "@" + domain
	password := randomPassword()

	acct, err := m.api.CreateAccount(ctx, address, password)
	if err != nil {
		return model.Session{}, fmt.Errorf("creating account: %w", err)
	}

	token, err := m.api.Token(ctx, address, password)
	if err != nil {
		return model.Session{}, fmt.Errorf("minting token: %w", err)
	}

	sess := model.Session{
		ID:        acct.ID,
		Address:   acct.Address,
		Password:  password,
		Token:     token,
		CreatedAt: acct.CreatedAt,
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	if err := m.persist(ctx, sess); err != nil {
		return model.Session{}, err
	}
	m.adopt(sess)
	m.invalidateDomain()
	return sess, nil
}

// resolveDomain returns the cached domain or fetches the provider's
// first offered one. The cache lives only long enough to mint one
// address.
func (m *Manager) resolveDomain(ctx context.Context) (string, error) {
	m.domainMu.Lock()
	defer m.domainMu.Unlock()

	if m.cachedDomain != nil {
		return m.cachedDomain.Domain, nil
	}

	domains, err := m.api.Domains(ctx)
	if err != nil {
		return "", fmt.Errorf("listing domains: %w", err)
	}
	if len(domains) == 0 {
		return "", ErrNoDomains
	}

	m.cachedDomain = &domains[0]
	return m.cachedDomain.Domain, nil
}

// PeekDomain returns a domain suitable for display next to a custom
// local-part input, fetching and caching one if needed.
func (m *Manager) PeekDomain(ctx context.Context) (string, error) {
	return m.resolveDomain(ctx)
}

// invalidateDomain drops the cached domain after an address was minted.
func (m *Manager) invalidateDomain() {
	m.domainMu.Lock()
	m.cachedDomain = nil
	m.domainMu.Unlock()
}

// displaceActive clears the active and persisted session, requesting
// best-effort deletion of its provider-side account.
func (m *Manager) displaceActive(ctx context.Context) {
	prev := m.snapshot()
	if prev == nil {
		return
	}

	m.deleteAccountAsync(*prev)

	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()
	m.clearPersisted(ctx)
}

// snapshot returns a copy of the active session or nil.
func (m *Manager) snapshot() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	s := *m.active
	return &s
}

// adopt makes sess the active session.
func (m *Manager) adopt(sess model.Session) {
	m.mu.Lock()
	m.active = &sess
	m.mu.Unlock()
}

// persist durably records the session: the identity under the fixed
// store key, the password in the secret store. Last writer wins.
func (m *Manager) persist(ctx context.Context, sess model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}
	if err := m.secrets.Set(passwordKey, sess.Password); err != nil {
		return fmt.Errorf("storing password: %w", err)
	}
	if err := m.store.Set(ctx, sessionKey, string(raw)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// clearPersisted removes the durable session record and its password.
func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.store.Delete(ctx, sessionKey); err != nil {
		log.Printf("session: clearing persisted record: %v", err)
	}
	if err := m.secrets.Delete(passwordKey); err != nil {
		log.Printf("session: clearing stored password: %v", err)
	}
}

// deleteAccountAsync requests provider-side deletion of a superseded
// account in the background. The result is only logged; it never blocks
// session replacement and its failure is not user-visible.
func (m *Manager) deleteAccountAsync(sess model.Session) {
	if sess.ID == "" || sess.Token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()

		if err := m.api.DeleteAccount(ctx, sess.Token, sess.ID); err != nil {
			log.Printf("session: best-effort delete of account %s: %v", sess.ID, err)
		}
	}()
}

// randomLocalPart synthesizes a locally unique local-part under the
// configured namespace prefix. UUID hex keeps it within the provider's
// lowercase-alphanumeric format rules.
func (m *Manager) randomLocalPart() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return m.prefix + token[:8]
}

// randomPassword synthesizes a throwaway account password.
func randomPassword() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
