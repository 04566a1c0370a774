package middleware

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/infrastructure/attestation"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

// DefaultMaxSkew is the allowed distance between the signed timestamp and now.
const DefaultMaxSkew = 5 * time.Minute

// DelegatedKeyMiddleware proves the caller holds the private half of the
// delegated key it presents. The signature covers "METHOD\nPATH\nTIMESTAMP".
type DelegatedKeyMiddleware struct {
	clock   biztime.Clock
	maxSkew time.Duration
	logger  logger.Interface
}

func NewDelegatedKeyMiddleware(clock biztime.Clock, maxSkew time.Duration, logger logger.Interface) *DelegatedKeyMiddleware {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &DelegatedKeyMiddleware{
		clock:   clock,
		maxSkew: maxSkew,
		logger:  logger,
	}
}

// SigningPayload is the message a delegated key signs for one request.
func SigningPayload(method, path string, timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s\n%s\n%d", method, path, timestamp))
}

func (m *DelegatedKeyMiddleware) RequireSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader(constants.HeaderDelegatedKey)
		rawTime := c.GetHeader(constants.HeaderDelegatedTime)
		rawSig := c.GetHeader(constants.HeaderDelegatedSigned)
		if rawKey == "" || rawTime == "" || rawSig == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing delegated key signature")
			c.Abort()
			return
		}

		pub, err := attestation.ParsePublicKey(rawKey)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid delegated key")
			c.Abort()
			return
		}

		ts, err := strconv.ParseInt(rawTime, 10, 64)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid delegated key timestamp")
			c.Abort()
			return
		}
		skew := m.clock.Now().Sub(time.Unix(ts, 0))
		if skew > m.maxSkew || skew < -m.maxSkew {
			utils.ErrorResponse(c, http.StatusUnauthorized, "delegated key signature expired")
			c.Abort()
			return
		}

		sig, err := hex.DecodeString(rawSig)
		if err != nil || !ed25519.Verify(pub, SigningPayload(c.Request.Method, c.Request.URL.Path, ts), sig) {
			m.logger.Warnw("delegated key signature rejected",
				"key", utils.MaskKey(rawKey),
				"path", c.Request.URL.Path,
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid delegated key signature")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyDelegatedKey, attestation.FormatPublicKey(pub))
		c.Next()
	}
}

// GetDelegatedKey returns the canonical key set by RequireSignature.
func GetDelegatedKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(constants.ContextKeyDelegatedKey)
	if !ok {
		return "", false
	}
	key, ok := v.(string)
	return key, ok && key != ""
}
