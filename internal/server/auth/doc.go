// Package auth implements password credentials (CredentialStore) and signed,
// self-contained session tokens (TokenService).
package auth
