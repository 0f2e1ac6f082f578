// Package models defines the data types of private messaging shared by the
// client and the collaborator adapters.
package models

// User is the subset of a profile record the E2EE layer reads and writes.
// PublicKey holds the published public key (base64), empty until provisioned.
type User struct {
	ID          string
	DisplayName string
	PublicKey   string
}

// HasPublicKey reports whether the profile already carries a published key.
func (u *User) HasPublicKey() bool {
	return u != nil && u.PublicKey != ""
}
