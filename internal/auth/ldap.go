package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/hawkmon/hawkmon/internal/db/models"
)

// LDAPClient implements DirectoryClient against an LDAP or Active Directory
// server described by a UserDirectory record.
type LDAPClient struct {
	dir *models.UserDirectory
}

// NewLDAPClient creates an LDAP directory client. Unset attribute names
// fall back to common schema defaults.
func NewLDAPClient(dir *models.UserDirectory) *LDAPClient {
	if dir.SearchAttribute == "" {
		dir.SearchAttribute = "uid"
	}

	if dir.NameAttr == "" {
		dir.NameAttr = "givenName"
	}

	if dir.SurnameAttr == "" {
		dir.SurnameAttr = "sn"
	}

	if dir.GroupNameAttr == "" {
		dir.GroupNameAttr = "cn"
	}

	if dir.Timeout == 0 {
		dir.Timeout = 10
	}

	return &LDAPClient{dir: dir}
}

// CanSearch reports whether the directory can be queried without the
// logging-in user's password.
func (c *LDAPClient) CanSearch() bool {
	return c.dir.CanSearch()
}

// connect establishes a connection to the LDAP server.
func (c *LDAPClient) connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(c.dir.Host, strconv.Itoa(c.dir.Port))
	ldapURL := "ldap://" + hostPort

	var tlsConfig *tls.Config
	if c.dir.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.dir.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         c.dir.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	if c.dir.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("%w: start tls: %v", ErrDirectoryUnavailable, errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(c.dir.Timeout) * time.Second)

	return conn, nil
}

// Bind authenticates the user against the directory and returns the mapped
// attribute set. A definitive credential rejection maps to ErrBindFailed;
// everything network-shaped maps to ErrDirectoryUnavailable so that the
// caller neither counts it as a failed login nor audits it as one.
func (c *LDAPClient) Bind(ctx context.Context, username, password string) (*AttributeSet, error) {
	// Empty passwords would turn the user bind into an unauthenticated
	// bind, which LDAP servers accept.
	if password == "" {
		return nil, ErrBindFailed
	}

	conn, err := c.connect()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err = c.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := c.searchUserEntry(ctx, conn, username)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrBindFailed
		}

		return nil, fmt.Errorf("%w: user bind: %v", ErrDirectoryUnavailable, err)
	}

	// Group search runs under the service identity again; the user's own
	// identity may not see the group tree.
	if err = c.bindService(conn); err != nil {
		return nil, err
	}

	return c.collectAttributes(ctx, conn, username, entry)
}

// FetchAttributes queries the directory for the user without a password.
// Only valid when the bind mode permits service-account access.
func (c *LDAPClient) FetchAttributes(ctx context.Context, username string) (*AttributeSet, error) {
	if !c.CanSearch() {
		return nil, ErrDirectorySearchUnsupported
	}

	conn, err := c.connect()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err = c.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := c.searchUserEntry(ctx, conn, username)
	if err != nil {
		return nil, err
	}

	return c.collectAttributes(ctx, conn, username, entry)
}

// bindService binds with the configured service account, or leaves the
// connection anonymous when none is configured.
func (c *LDAPClient) bindService(conn *ldap.Conn) error {
	if c.dir.BindMode != models.BindModeService || c.dir.BindDN == "" {
		return nil
	}

	if err := conn.Bind(c.dir.BindDN, c.dir.BindPassword); err != nil {
		return fmt.Errorf("%w: service bind: %v", ErrDirectoryUnavailable, err)
	}

	return nil
}

// searchUserEntry searches LDAP for the given username and returns a single entry.
func (c *LDAPClient) searchUserEntry(ctx context.Context, conn *ldap.Conn, username string) (*ldap.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	attrs := []string{c.dir.SearchAttribute, c.dir.NameAttr, c.dir.SurnameAttr, "dn"}
	for _, m := range c.dir.MediaMappings {
		attrs = append(attrs, m.Attribute)
	}

	filter := fmt.Sprintf("(%s=%s)", c.dir.SearchAttribute, ldap.EscapeFilter(username))
	searchRequest := ldap.NewSearchRequest(
		c.dir.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		c.dir.Timeout,
		false,
		filter,
		attrs,
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: user search: %v", ErrDirectoryUnavailable, err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrDirectoryUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrBindFailed
	}
}

// collectAttributes builds the AttributeSet from the user entry plus a
// group search.
func (c *LDAPClient) collectAttributes(
	ctx context.Context,
	conn *ldap.Conn,
	username string,
	entry *ldap.Entry,
) (*AttributeSet, error) {
	groups, err := c.searchGroups(ctx, conn, entry.DN)
	if err != nil {
		return nil, err
	}

	attrs := &AttributeSet{
		Username: username,
		Name:     entry.GetAttributeValue(c.dir.NameAttr),
		Surname:  entry.GetAttributeValue(c.dir.SurnameAttr),
		Groups:   groups,
		Media:    make(map[string][]string, len(c.dir.MediaMappings)),
	}

	for _, m := range c.dir.MediaMappings {
		if values := entry.GetAttributeValues(m.Attribute); len(values) > 0 {
			attrs.Media[m.Attribute] = values
		}
	}

	return attrs, nil
}

// searchGroups retrieves the names of all groups the user belongs to.
func (c *LDAPClient) searchGroups(ctx context.Context, conn *ldap.Conn, userDN string) ([]string, error) {
	if c.dir.GroupBaseDN == "" {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	filter := strings.ReplaceAll(c.dir.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
	searchRequest := ldap.NewSearchRequest(
		c.dir.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		c.dir.Timeout,
		false,
		filter,
		[]string{c.dir.GroupNameAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: group search: %v", ErrDirectoryUnavailable, err)
	}

	groups := make([]string, 0, len(searchResult.Entries))
	for _, e := range searchResult.Entries {
		if name := e.GetAttributeValue(c.dir.GroupNameAttr); name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}

func closeConn(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}
