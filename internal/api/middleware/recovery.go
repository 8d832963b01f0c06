// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 JSON error response instead of
// tearing down the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			log.Printf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, v, debug.Stack())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`)
		}()

		next.ServeHTTP(w, r)
	})
}
