package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/astraforge/engine/internal/domain"
)

const (
	// MinSecretKeyLength is the minimum accepted secret key length.
	MinSecretKeyLength = 32

	clientOrderIDPrefix = "ASTRA"

	// SignatureScheme tags the placeholder digest scheme. The venue API
	// expects an (r, s, v) shape; this is NOT a curve signature.
	SignatureScheme = "SHA256-DEMO"
)

// PayloadSigner builds a canonical representation of order parameters and
// produces a signature bound to the caller's secret key. Pure apart from
// wall-clock time and the client-order-id nonce.
type PayloadSigner struct {
	now   func() time.Time
	nonce func() int
}

func NewPayloadSigner() *PayloadSigner {
	return &PayloadSigner{
		now:   time.Now,
		nonce: func() int { return rand.Intn(1000000) },
	}
}

// Sign authenticates order parameters with the given secret key.
// Returns domain.ErrInvalidKey if the key is empty or too short.
func (s *PayloadSigner) Sign(secretKey string, params domain.OrderParams) (*domain.SignedOrderPayload, error) {
	if len(secretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("%w: need at least %d characters", domain.ErrInvalidKey, MinSecretKeyLength)
	}

	nowMillis := s.now().UnixMilli()

	clientOrderID := params.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = fmt.Sprintf("%s_%d_%d", clientOrderIDPrefix, nowMillis, s.nonce())
	}

	canonical := canonicalString(params, clientOrderID, nowMillis)

	digest := sha256.Sum256([]byte(secretKey + ":" + canonical))

	return &domain.SignedOrderPayload{
		Market:        params.Market,
		Side:          params.Side,
		OrderType:     params.OrderType,
		Size:          params.Size,
		Price:         params.Price,
		ClientOrderID: clientOrderID,
		ReduceOnly:    params.ReduceOnly,
		PostOnly:      params.PostOnly,
		Signature: domain.Signature{
			R:          "0x" + hex.EncodeToString(digest[:16]),
			S:          "0x" + hex.EncodeToString(digest[16:]),
			RecoveryID: 0,
			Scheme:     SignatureScheme,
		},
		TimestampMillis: nowMillis,
	}, nil
}

// canonicalString collects all non-empty parameters as key=value pairs,
// sorts them by key and joins with "&". Sorting makes the signature
// deterministic for equal logical payloads regardless of construction order.
func canonicalString(p domain.OrderParams, clientOrderID string, timestampMillis int64) string {
	fields := map[string]string{
		"clientOrderId": clientOrderID,
		"market":        p.Market,
		"orderType":     p.OrderType,
		"postOnly":      strconv.FormatBool(p.PostOnly),
		"price":         p.Price,
		"reduceOnly":    strconv.FormatBool(p.ReduceOnly),
		"side":          p.Side,
		"size":          p.Size,
		"timestamp":     strconv.FormatInt(timestampMillis, 10),
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return strings.Join(pairs, "&")
}
