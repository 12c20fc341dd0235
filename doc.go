// Package sso provides the authenticated-session core for SSO backed web
// applications: id-token decoding, first-party access-token issuance, refresh
// token rotation against an external identity provider, and audit logging of
// every login and registration attempt.
//
// The package is framework agnostic. HTTP session resolution (cookies,
// mirrored headers, language redirects) lives in the session subpackage,
// persistence in repository, and the Google provider client in
// provider/google. Services are composed explicitly: construct them with
// their collaborators, no container required.
package sso
