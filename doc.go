// Package osiapp implements the backend for the osiapp API: email and
// password registration with mailed confirmation links, JWT login, and a
// small set of user resources served over HTTP.
//
// Registration flow:
//   - RegisterUserHandler validates the credentials, creates the account in
//     an unconfirmed state, and mails a signed confirmation link. A mail
//     delivery failure keeps the account and surfaces as a degraded response
//     so the caller knows the email never left.
//   - ConfirmEmailHandler verifies the signed token and flips the account to
//     confirmed. Confirmation is idempotent: replaying a valid link reports
//     already_confirmed instead of failing.
//
// Sessions:
//   - Auther exchanges verified credentials for an HS256 JWT carrying the
//     numeric user id and role. The jwtware middleware validates tokens on
//     protected routes and stores the claims in the router context, where
//     GetRouterSession recovers them as a SessionObject.
//
// Storage is bun backed with Postgres in production and sqlite in tests.
package osiapp
