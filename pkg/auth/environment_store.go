package auth

import "time"

// EnvironmentStore implements TokenStore over environment variables. It is
// read-only; tokens land in the environment via the shell or a .env file.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from environment variables
func (e *EnvironmentStore) Retrieve() (*Credential, error) {
	token := tokenFromEnv()
	if token == "" {
		return nil, ErrTokenNotFound
	}

	return &Credential{
		AuthToken:    token,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists() bool {
	return tokenFromEnv() != ""
}
