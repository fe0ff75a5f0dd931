package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/provider"
	"github.com/ifconcept/gvail/tests/testutil"
)

// fakeAPI is an in-memory provider.API with scriptable failures.
type fakeAPI struct {
	mu sync.Mutex

	domains    []model.Domain
	domainsErr error

	failCreates int // first N CreateAccount calls fail
	createErr   error
	createCalls int

	tokenErr error

	deleted []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		domains: []model.Domain{
			{ID: "d1", Domain: "mail.example", IsActive: true},
			{ID: "d2", Domain: "alt.example", IsActive: true},
		},
	}
}

func (f *fakeAPI) Domains(ctx context.Context) ([]model.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.domainsErr != nil {
		return nil, f.domainsErr
	}
	return f.domains, nil
}

func (f *fakeAPI) CreateAccount(
	ctx context.Context,
	address, password string,
) (*provider.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.failCreates > 0 {
		f.failCreates--
		return nil, fmt.Errorf("provider unavailable")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &provider.Account{
		ID:        "acct-" + address,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeAPI) Token(ctx context.Context, address, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok-" + address, nil
}

func (f *fakeAPI) Messages(context.Context, string, int) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeAPI) Message(context.Context, string, string) (*model.Message, error) {
	return nil, nil
}

func (f *fakeAPI) DeleteAccount(ctx context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// fakeSecrets is an in-memory Secrets implementation.
type fakeSecrets struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{values: map[string]string{}}
}

func (f *fakeSecrets) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func (f *fakeSecrets) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeSecrets) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func newTestManager(t *testing.T, api *fakeAPI) (*Manager, *fakeSecrets) {
	t.Helper()
	secrets := newFakeSecrets()
	m := NewManagerWithSecrets(
		api, testutil.NewTestStore(t), secrets, "gvail_", time.Millisecond,
	)
	return m, secrets
}

func TestAutoGenerateProvisionsAndAdopts(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	sess, err := m.AutoGenerate(context.Background())

	require.NoError(t, err)
	assert.True(t, sess.Complete())
	assert.Contains(t, sess.Address, "gvail_")
	assert.Contains(t, sess.Address, "@mail.example")

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, sess.Address, active.Address)
	assert.Equal(t, sess.Token, m.Token())
}

func TestAutoGenerateRetriesUntilSuccess(t *testing.T) {
	api := newFakeAPI()
	api.failCreates = 3
	m, _ := newTestManager(t, api)

	sess, err := m.AutoGenerate(context.Background())

	require.NoError(t, err)
	assert.True(t, sess.Complete())
	assert.Equal(t, 4, api.calls())
}

func TestAutoGenerateStopsOnContextCancel(t *testing.T) {
	api := newFakeAPI()
	api.createErr = errors.New("always down")
	m, _ := newTestManager(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.AutoGenerate(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAutoGenerateAddressesAreUnique(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	first, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)
	second, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Address, second.Address)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	api := newFakeAPI()
	secrets := newFakeSecrets()
	st := testutil.NewTestStore(t)

	seeded := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	created, err := seeded.AutoGenerate(context.Background())
	require.NoError(t, err)

	// A fresh manager over the same store simulates a restart.
	restarted := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	restored, ok := restarted.Bootstrap(context.Background())

	require.True(t, ok)
	assert.Equal(t, created.Address, restored.Address)
	assert.Equal(t, created.Token, restored.Token)
	assert.Equal(t, created.Password, restored.Password)

	active, ok := restarted.Active()
	require.True(t, ok)
	assert.Equal(t, created.Address, active.Address)
}

func TestBootstrapReturnsFalseOnEmptyStore(t *testing.T) {
	m, _ := newTestManager(t, newFakeAPI())

	_, ok := m.Bootstrap(context.Background())
	assert.False(t, ok)
	_, active := m.Active()
	assert.False(t, active)
}

func TestBootstrapDiscardsRecordWithoutPassword(t *testing.T) {
	api := newFakeAPI()
	secrets := newFakeSecrets()
	st := testutil.NewTestStore(t)

	seeded := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	_, err := seeded.AutoGenerate(context.Background())
	require.NoError(t, err)

	// Losing the keyring entry makes the record partial; partial means
	// absent.
	require.NoError(t, secrets.Delete(passwordKey))

	restarted := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	_, ok := restarted.Bootstrap(context.Background())
	assert.False(t, ok)

	// The dangling store record was cleared as well.
	_, ok = restarted.Bootstrap(context.Background())
	assert.False(t, ok)
}

func TestBootstrapDiscardsMalformedRecord(t *testing.T) {
	api := newFakeAPI()
	secrets := newFakeSecrets()
	st := testutil.NewTestStore(t)
	require.NoError(t, st.Set(context.Background(), sessionKey, "{not json"))

	m := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	_, ok := m.Bootstrap(context.Background())
	assert.False(t, ok)
}

func TestRegenerateDoesNotRetry(t *testing.T) {
	api := newFakeAPI()
	api.createErr = errors.New("provider down")
	m, _ := newTestManager(t, api)

	_, err := m.Regenerate(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, api.calls())
}

func TestRegenerateDisplacesPreviousAccount(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	first, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)
	second, err := m.Regenerate(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Address, second.Address)
	assert.Eventually(t, func() bool {
		for _, id := range api.deletedIDs() {
			if id == first.ID {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond,
		"superseded account should be deleted in the background")
}

func TestCustomCreateRejectsInvalidLocalPartWithoutNetwork(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	for _, input := range []string{"", "bad name", "uh!", "héllo", "a_b"} {
		_, err := m.CustomCreate(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidLocalPart, "input %q", input)
	}
	assert.Zero(t, api.calls())
}

func TestCustomCreateNormalizesInput(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	sess, err := m.CustomCreate(context.Background(), "  My.Box9  ")

	require.NoError(t, err)
	assert.Equal(t, "my.box9@mail.example", sess.Address)
}

func TestCustomCreateConflictKeepsPreviousSession(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	previous, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)

	api.mu.Lock()
	api.createErr = &provider.ConflictError{Detail: "already used"}
	api.mu.Unlock()

	_, err = m.CustomCreate(context.Background(), "wanted")

	require.ErrorIs(t, err, ErrAddressTaken)
	assert.Contains(t, err.Error(), "wanted")

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, previous.Address, active.Address)
	assert.Equal(t, previous.Token, active.Token)
}

func TestCustomCreateSuccessDisplacesPrevious(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	previous, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)

	sess, err := m.CustomCreate(context.Background(), "mybox")
	require.NoError(t, err)
	assert.Equal(t, "mybox@mail.example", sess.Address)

	assert.Eventually(t, func() bool {
		for _, id := range api.deletedIDs() {
			if id == previous.ID {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestRotateNeverReusesDeadToken(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	first, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)

	rotated, err := m.Rotate(context.Background())

	require.NoError(t, err)
	assert.NotEqual(t, first.Token, rotated.Token)
	assert.NotEqual(t, first.Address, rotated.Address)

	// The dead token was dropped before displacement, so the stale
	// account cannot be deleted with it.
	assert.Empty(t, api.deletedIDs())
}

func TestProvisionFailsWhenNoDomains(t *testing.T) {
	api := newFakeAPI()
	api.domains = nil
	m, _ := newTestManager(t, api)

	_, err := m.Regenerate(context.Background())
	require.ErrorIs(t, err, ErrNoDomains)
}

func TestPeekDomainUsesFirstOffered(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestManager(t, api)

	domain, err := m.PeekDomain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "mail.example", domain)
}

func TestPersistedPasswordNeverInStore(t *testing.T) {
	api := newFakeAPI()
	secrets := newFakeSecrets()
	st := testutil.NewTestStore(t)

	m := NewManagerWithSecrets(api, st, secrets, "gvail_", time.Millisecond)
	sess, err := m.AutoGenerate(context.Background())
	require.NoError(t, err)

	raw, err := st.Get(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, sess.Password)

	stored, err := secrets.Get(passwordKey)
	require.NoError(t, err)
	assert.Equal(t, sess.Password, stored)
}
