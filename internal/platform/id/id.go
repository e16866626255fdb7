package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// SessionID builds ids of the form YYYYMMDD-HHmmss-RRRR.
type SessionID struct {
	Now func() time.Time
}

func (g SessionID) New() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(0)
	}
	return fmt.Sprintf("%s-%04d", now().Format("20060102-150405"), n.Int64())
}
