package roulette

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/big"
)

var errInvalidRange = errors.New("invalid random range")

// テストで差し替えられるように関数変数にしておく
var (
	drawUniform = secureFloat64
	drawIntn    = secureRandomInt
)

// secureFloat64 returns a uniform sample in [0,1) built from 53 random bits.
func secureFloat64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand の読み込み失敗は実質起きないが、LOSE側に倒す
		return 1 - 1e-16
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidRange
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// pickIndex はエラー時に0を返す
func pickIndex(max int) int {
	n, err := drawIntn(max)
	if err != nil || n < 0 || n >= max {
		return 0
	}
	return n
}
