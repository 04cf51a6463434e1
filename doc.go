// Package main provides the entry point for the Hawkmon monitoring service.
// It runs a web server using the Fiber framework that authenticates users
// against the local store, LDAP directories or an OpenID Connect provider,
// manages their sessions and API tokens, and provisions directory users
// just in time. The application uses gorm for data persistence.
package main
