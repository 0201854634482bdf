package crypto_test

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/forest6511/pwctl/pkg/crypto"
)

// Every local container call derives the key once, so this bounds the
// latency of a lookup.
func BenchmarkDeriveKey(b *testing.B) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		b.Fatal(err)
	}

	for _, tc := range []struct {
		name   string
		params crypto.KDFParams
	}{
		{"default", crypto.DefaultKDFParams()},
		{"minimal", crypto.KDFParams{Memory: 1024, Time: 1, Threads: 1}},
	} {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := crypto.DeriveKey([]byte("correct horse"), salt, tc.params); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// A record line is about 40 bytes; the sizes cover a few to a few thousand
// applications.
func BenchmarkSealMember(b *testing.B) {
	key := make([]byte, crypto.KeyLength)
	if _, err := rand.Read(key); err != nil {
		b.Fatal(err)
	}

	for _, size := range []int{256, 4 << 10, 128 << 10} {
		data := make([]byte, size)
		if _, err := rand.Read(data); err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))
			for i := 0; i < b.N; i++ {
				ciphertext, nonce, err := crypto.Encrypt(key, data, []byte("passes"))
				if err != nil {
					b.Fatal(err)
				}
				if _, err := crypto.Decrypt(key, ciphertext, nonce, []byte("passes")); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
