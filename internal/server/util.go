package server

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
)

// isSafeToken validates voice and language identifiers before they
// reach the engine's argument list. Allowed characters: A-Z a-z 0-9
// . _ - with no ".." and no path separators. Empty means "use the
// default" and is fine.
func isSafeToken(s string) bool {
	if s == "" {
		return true
	}
	if strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	_ = json.NewEncoder(c.Writer).Encode(v)
}
