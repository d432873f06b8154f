package auth

import "sync"

// MockStore is an in-memory TokenStore for testing
type MockStore struct {
	cred        *Credential
	storeErr    error
	retrieveErr error
	mu          sync.Mutex
}

// NewMockStore creates an in-memory token store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Store saves the credential in memory
func (m *MockStore) Store(cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	if cred == nil || cred.AuthToken == "" {
		return ErrInvalidToken
	}
	c := *cred
	m.cred = &c
	return nil
}

// Retrieve returns the in-memory credential
func (m *MockStore) Retrieve() (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	if m.cred == nil {
		return nil, ErrTokenNotFound
	}
	c := *m.cred
	return &c, nil
}

// Delete clears the in-memory credential
func (m *MockStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ErrTokenNotFound
	}
	m.cred = nil
	return nil
}

// Exists checks if a credential is held in memory
func (m *MockStore) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred != nil
}

// SetStoreError makes subsequent Store calls fail
func (m *MockStore) SetStoreError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeErr = err
}

// SetRetrieveError makes subsequent Retrieve calls fail
func (m *MockStore) SetRetrieveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveErr = err
}
