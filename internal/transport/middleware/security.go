package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"regexp"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
)

const maxScreenedBody = 1 << 20

var sqlInjectionPatterns = compileAll(
	`(?i)\bUNION\b.*\bSELECT\b`,
	`(?i)\bINSERT\b.*\bINTO\b`,
	`(?i)\bUPDATE\b.*\bSET\b`,
	`(?i)\bDELETE\b.*\bFROM\b`,
	`(?i)\bDROP\b.*\bTABLE\b`,
	`(?i)\bSELECT\b.*\*`,
	`(?i)\bOR\b\s*1\s*=\s*1`,
	`(?i)\bAND\b\s*1\s*=\s*1`,
	`--`,
	`/\*.*\*/`,
	`(?i)'.*OR.*'.*=.*'`,
	`(?i)'.*AND.*'.*=.*'`,
	`(?i)chr\(\d+\)`,
	`0x[0-9a-fA-F]+`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// LooksLikeSQLInjection reports whether s matches any screened pattern.
func LooksLikeSQLInjection(s string) bool {
	for _, re := range sqlInjectionPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// InputScreen rejects requests whose query values or top level JSON string
// fields look like SQL injection attempts.
func InputScreen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, values := range r.URL.Query() {
			for _, v := range values {
				if LooksLikeSQLInjection(v) {
					transport.WriteErrorJSON(w, http.StatusBadRequest, internal.ErrIllegalInput.Message)
					return
				}
			}
		}

		if isJSON(r) && r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxScreenedBody+1))
			if err != nil {
				transport.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body")
				return
			}
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

			var fields map[string]interface{}
			if len(body) <= maxScreenedBody && json.Unmarshal(body, &fields) == nil {
				for _, v := range fields {
					if s, ok := v.(string); ok && LooksLikeSQLInjection(s) {
						transport.WriteErrorJSON(w, http.StatusBadRequest, internal.ErrIllegalInput.Message)
						return
					}
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
