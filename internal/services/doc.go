// Package services implements the Spotify now-playing client and identity
// token decoding.
//
// # Authorization
//
// [SpotifyService] is a public OAuth client using the PKCE flow: a random
// code verifier is generated and persisted, its S256 challenge rides along
// on the authorize redirect, and the token exchange proves possession of the
// verifier. No client secret is configured and no refresh token is
// requested: when the API answers 401, the client discards the token,
// transitions back to unauthenticated, and the user re-authorizes.
//
// The client walks four states: Unauthenticated → Authorizing →
// AwaitingCallback → Authenticated, returning to Unauthenticated on logout
// or detected expiry.
//
// # Track Fetching
//
// [SpotifyService.NowPlaying] tries /me/player/currently-playing first and
// falls back to the newest /me/player/recently-played item, returning a
// normalized [models.Track] or nil when neither source has data.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : authenticated call with no token held
//   - [shared.ErrAuthExpired] : API returned 401, token discarded
//   - [shared.ErrMissingVerifier] : callback arrived with no stored verifier
//   - [shared.ErrAPIRequest] : any other request failure, safe to retry
//
// # Identity
//
// [ParseIdentityToken] decodes a Google ID token payload without verifying
// its signature. That is acceptable only because the same-origin sign-in
// widget already verified it; see the function doc for the trust boundary.
package services
