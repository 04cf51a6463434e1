package auth

import (
	"context"

	"github.com/hawkmon/hawkmon/internal/db/models"
)

// AttributeSet carries the identity attributes a directory returned for one
// user: the raw IdP group names feed the group-pattern mapping, the media
// values feed the media-attribute mapping.
type AttributeSet struct {
	// Username as known by the IdP.
	Username string
	// Name is the given name.
	Name string
	// Surname is the family name.
	Surname string
	// Groups are the raw group names reported by the IdP.
	Groups []string
	// Media maps an IdP attribute name to its recipient values.
	Media map[string][]string
}

// DirectoryClient is the protocol boundary towards one identity provider.
//
// Bind authenticates with the user's own credentials and returns the
// attribute set on success; the error distinguishes a definitive rejection
// (ErrBindFailed) from infrastructure failure (ErrDirectoryUnavailable).
//
// FetchAttributes queries the directory without a user password and is only
// callable when CanSearch reports true; ErrDirectoryUserNotFound signals a
// definitive identity answer, everything else is infrastructure.
type DirectoryClient interface {
	Bind(ctx context.Context, username, password string) (*AttributeSet, error)
	FetchAttributes(ctx context.Context, username string) (*AttributeSet, error)
	CanSearch() bool
}

// ClientFactory builds a protocol client for a directory record. The
// default factory speaks LDAP; tests substitute fakes.
type ClientFactory func(dir *models.UserDirectory) (DirectoryClient, error)

// NewClientFactory returns the production factory.
func NewClientFactory() ClientFactory {
	return func(dir *models.UserDirectory) (DirectoryClient, error) {
		if dir.IdpType == models.IdpTypeSAML {
			return &samlDirectory{dir: dir}, nil
		}

		return NewLDAPClient(dir), nil
	}
}

// samlDirectory is the degenerate client for SAML directories: assertions
// are verified outside this service, so neither a password bind nor a
// service-account search is possible here. The directory record only
// contributes its provisioning mapping rules.
type samlDirectory struct {
	dir *models.UserDirectory
}

func (s *samlDirectory) Bind(_ context.Context, _, _ string) (*AttributeSet, error) {
	return nil, ErrBindFailed
}

func (s *samlDirectory) FetchAttributes(_ context.Context, _ string) (*AttributeSet, error) {
	return nil, ErrDirectorySearchUnsupported
}

func (s *samlDirectory) CanSearch() bool {
	return false
}
