// Package auth holds the session token for the console's API client.
//
// A TokenStore keeps the bearer token issued by POST /auth/login. Tokens are
// inspected without signature verification: the client only needs the exp
// claim to decide whether a stored token is still worth sending, and the
// identity claims to show who is signed in. The remote service remains the
// authority on validity. Transport attaches the token to outgoing requests.
package auth
