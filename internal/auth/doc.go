// Package auth implements user authentication for Hawkmon: credential
// logins against the local store or an external directory, session and API
// token validation, login lockout, and just-in-time provisioning of
// directory users.
//
// The entry points are Service.Login, Service.LoginByUsername and
// Service.CheckAuthentication. Group membership decides per user which
// method applies; the fold over group settings lives in ResolvePermissions.
package auth
