// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
)

// 2048-bit MODP group (RFC 3526 group 14), generator 2
const dhPrimeHex = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

// dhSecretHexLength is the hex length the shared secret is padded to before hashing
const dhSecretHexLength = 512

var (
	dhPrime, _  = new(big.Int).SetString(dhPrimeHex, 16)
	dhGenerator = big.NewInt(2)
	one         = big.NewInt(1)
)

// DHKeyPair is one side of a Diffie-Hellman exchange
type DHKeyPair struct {
	private *big.Int
	// Public is the uppercase hex public value sent to the other side
	Public string
}

// GenerateDHKeyPair picks a random private value in [2, p-2] and derives the public value
func GenerateDHKeyPair() (*DHKeyPair, error) {
	max := new(big.Int).Sub(dhPrime, big.NewInt(3))
	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}
	private := r.Add(r, big.NewInt(2))
	public := new(big.Int).Exp(dhGenerator, private, dhPrime)
	return &DHKeyPair{
		private: private,
		Public:  strings.ToUpper(public.Text(16)),
	}, nil
}

// SharedSecretKey combines our private value with the other side's public value,
// and hashes the padded shared secret down to a 32 byte key in uppercase hex
func (kp *DHKeyPair) SharedSecretKey(ctx context.Context, otherPublicHex string) (string, error) {
	other, ok := new(big.Int).SetString(otherPublicHex, 16)
	if !ok || other.Cmp(one) <= 0 || other.Cmp(new(big.Int).Sub(dhPrime, one)) >= 0 {
		return "", i18n.NewError(ctx, i18n.MsgInvalidDHPublicValue)
	}
	secret := new(big.Int).Exp(other, kp.private, dhPrime)
	return secretToKey(secret)
}

func secretToKey(secret *big.Int) (string, error) {
	secretHex := secret.Text(16)
	if len(secretHex) < dhSecretHexLength {
		secretHex = strings.Repeat("0", dhSecretHexLength-len(secretHex)) + secretHex
	}
	b, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
