// Package services implements the clients that talk to the stage list backend.
//
// # Transport
//
// [APIService] sends JSON requests, rate limited with golang.org/x/time/rate, and attaches a bearer
// token from an [oauth2.TokenSource] when one is configured. Non-2xx responses become [*APIError],
// which unwraps to a shared sentinel:
//   - 401/403 : [shared.ErrNotAuthenticated]
//   - 404 : [shared.ErrListNotFound]
//   - 5xx : [shared.ErrServiceUnavailable]
//   - other : [shared.ErrAPIRequest]
//
// # Cloud
//
// [CloudService] implements [Remote], the CRUD surface the sync layer mirrors local changes to.
// Upsert is explicit: the list is sent with upsert=true and the backend creates it when missing.
//
// # Authentication
//
// [AuthService] signs in with the OAuth2 resource-owner password grant against /auth/token and
// keeps the persisted session fresh: [AuthService.Session] refreshes when fewer than five
// minutes remain. Session changes are published to subscribers so the application can switch
// between local-only and mirrored mode without restarting.
package services
