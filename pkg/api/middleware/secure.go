package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the security response headers on every response,
// including error and not-found replies.
func SecureHeaders() func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		ContentTypeNosniff:            true,
		FrameDeny:                     true,
		BrowserXssFilter:              true,
		CustomBrowserXssValue:         "0",
		ReferrerPolicy:                "no-referrer",
		ContentSecurityPolicy:         "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'self';img-src 'self' data:;object-src 'none';script-src 'self';script-src-attr 'none';style-src 'self' https: 'unsafe-inline';upgrade-insecure-requests",
		CrossOriginOpenerPolicy:       "same-origin",
		CrossOriginResourcePolicy:     "same-origin",
		XDNSPrefetchControl:           "off",
		XPermittedCrossDomainPolicies: "none",
		STSSeconds:                    15552000,
		STSIncludeSubdomains:          true,
		ForceSTSHeader:                true,
	})
	return s.Handler
}
