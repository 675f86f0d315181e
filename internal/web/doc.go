// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web exposes the auth service as a JSON API under /api/auth.
//
// Sessions travel in an HttpOnly cookie holding a signed token. Handlers
// translate auth errors by auth.KindOf and never leak which half of a login
// was wrong.
package web
