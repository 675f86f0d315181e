// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides credential hashing, account registration and login,
// signed session tokens, and session cookies.
//
// # Components
//
//   - PasswordHasher - salted adaptive hashing (BcryptHasher, Argon2idHasher)
//   - Service - CreateUser and AuthenticateUser over a UserRepository
//   - TokenService - HS256 session tokens with an expiry inside the signed payload
//   - CookieManager - session cookies with HttpOnly and SameSite=Strict
//
// The server holds no session state. A token is valid exactly when its
// signature checks out under the configured secret and it has not expired.
//
// # Errors
//
// Every returned error wraps one of the package sentinels. KindOf maps an
// error to a Kind for translation at the transport boundary. Unknown email
// and wrong password both yield ErrInvalidCredentials with identical
// message, code and context.
package auth
