// Package server is the stage list REST backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it on
// go-chi; middleware is applied per handler at registration, first added outermost, and
// [ChiRouter.With] derives a router with extra middleware for a group of routes.
//
// # Endpoints
//
//	GET    /health          {"status":"ok"}
//	GET    /metrics         Prometheus exposition
//	POST   /signup          create an account (bcrypt-hashed password)
//	POST   /auth/token      OAuth2 password and refresh_token grants, HS256 JWTs
//	GET    /lists           the caller's lists
//	POST   /lists           create or overwrite a list
//	PUT    /lists/{id}      merge name, songs, nextId, updatedAt; ?upsert=true creates when missing
//	DELETE /lists/{id}      remove a list
//	GET    /settings        metronome settings with defaults
//	PUT    /settings        write only the fields present
//
// Everything under /lists and /settings requires a Bearer access token. Data lives in a
// [kvstore.Store] under lists:{uid}:{id}, settings:{uid}:{field} and users:email:{email}.
//
// # Middleware
//
// [Recover], [RequestLogger], [Metrics.Middleware], [CORS] and [BodyLimit] wrap every route;
// [RequireAuth] guards the per-user routes.
package server
