// Package auth provides authentication primitives for larpd.
//
// # Credentials
//
// Users authenticate with email and password. Passwords are hashed with
// bcrypt (HashPassword/CheckPassword); hashes never leave the store layer.
//
// # Tokens
//
// Successful logins mint HS256 JWTs carrying the user ID in the "sub" claim:
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate(userID, 30*time.Minute)
//	userID, err := verifier.Verify(token)
//
// # Principal Propagation
//
// Every operation receives its caller as an explicit Principal on the
// context (WithPrincipal/FromContext). HTTPAuthMiddleware populates it from
// the Authorization header; OptionalAuthMiddleware does the same for public
// endpoints without rejecting anonymous callers. There is no global
// session-scoped current user.
package auth
