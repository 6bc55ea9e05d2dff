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

// Package crypto holds the primitives the SPI envelope and key exchange are built on.
//
// Messages are encrypted with AES-256-CBC under a zero IV with PKCS7 padding, and the
// uppercase hex ciphertext is signed with HMAC-SHA256. Both keys are 32 bytes.
package crypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
)

// KeyLength is the length in bytes of both the encryption and the HMAC key
const KeyLength = 32

// AESEncrypt encrypts the message and returns the ciphertext as uppercase hex
func AESEncrypt(ctx context.Context, key []byte, message string) (string, error) {
	block, err := newCipher(ctx, key)
	if err != nil {
		return "", err
	}
	plaintext := pkcs7Pad([]byte(message), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return strings.ToUpper(hex.EncodeToString(ciphertext)), nil
}

// AESDecrypt reverses AESEncrypt
func AESDecrypt(ctx context.Context, key []byte, encHex string) (string, error) {
	block, err := newCipher(ctx, key)
	if err != nil {
		return "", err
	}
	ciphertext, err := hex.DecodeString(encHex)
	if err != nil {
		return "", i18n.WrapError(ctx, err, i18n.MsgDecryptFailed)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", i18n.NewError(ctx, i18n.MsgDecryptFailed)
	}
	plaintext := make([]byte, len(ciphertext))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	plaintext, err = pkcs7Unpad(ctx, plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// HMACSignature signs the message with HMAC-SHA256, returning uppercase hex
func HMACSignature(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifyHMAC compares in constant time, ignoring hex case
func VerifyHMAC(key []byte, message, signature string) bool {
	expected := HMACSignature(key, message)
	return hmac.Equal([]byte(expected), []byte(strings.ToUpper(signature)))
}

// SHA256Hex returns the uppercase hex SHA-256 digest
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// DecodeKey parses a hex key and checks its length
func DecodeKey(ctx context.Context, keyHex string) ([]byte, error) {
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgInvalidHex)
	}
	if len(b) != KeyLength {
		return nil, i18n.NewError(ctx, i18n.MsgInvalidKeyLength, KeyLength, len(b))
	}
	return b, nil
}

func newCipher(ctx context.Context, key []byte) (cipher.Block, error) {
	if len(key) != KeyLength {
		return nil, i18n.NewError(ctx, i18n.MsgInvalidKeyLength, KeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgEncryptFailed)
	}
	return block, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	padding := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(ctx context.Context, b []byte, blockSize int) ([]byte, error) {
	padding := int(b[len(b)-1])
	if padding == 0 || padding > blockSize || padding > len(b) {
		return nil, i18n.NewError(ctx, i18n.MsgInvalidPadding)
	}
	for _, p := range b[len(b)-padding:] {
		if int(p) != padding {
			return nil, i18n.NewError(ctx, i18n.MsgInvalidPadding)
		}
	}
	return b[:len(b)-padding], nil
}
