// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (request_id, method, path, remote) and completion
(request_id, status, duration_ms). The request ID comes from X-Request-Id
when present, otherwise it is generated; either way it is echoed in the
response and available through RequestID(r.Context()).

The wrapped ResponseWriter still supports Hijack, so websocket handlers can
be logged too.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, PATCH, DELETE, OPTIONS with headers Content-Type,
X-User-Token, X-Request-Id.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CreateBucketRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

Bodies are capped at 1 MiB.

# Identity

	token := middleware.UserToken(r)  // X-User-Token, trimmed

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, then X-Real-IP, then RemoteAddr. The result is hashed
with auth.HashIP before it is stored with a rating.
*/
package middleware
