package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferRequestV1 is the wire format for POST /transfer
type TransferRequestV1 struct {
	Sender    string `json:"sender"`
	Amount    string `json:"amount"` // base-10 uint256
	Recipient string `json:"recipient"`
	Token     string `json:"token"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"` // 0x-prefixed 65-byte ECDSA signature
}

// TransferResponseV1 is returned for a successful POST /transfer
type TransferResponseV1 struct {
	Digest    string `json:"digest"`
	RequestID string `json:"request_id"`
}

// DigestRequestV1 is the wire format for the /digest query
type DigestRequestV1 struct {
	Sender    string `json:"sender"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Token     string `json:"token"`
	Nonce     uint64 `json:"nonce"`
}

// DigestResponseV1 carries the digest a signer must sign
type DigestResponseV1 struct {
	Digest string `json:"digest"`
}

// ErrorResponseV1 is the wire format for all non-2xx responses
type ErrorResponseV1 struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Intent converts the wire request into a typed TransferIntent
func (r *TransferRequestV1) Intent() (*TransferIntent, error) {
	return parseIntent(r.Sender, r.Amount, r.Recipient, r.Token, r.Nonce)
}

// Intent converts the wire digest query into a typed TransferIntent
func (r *DigestRequestV1) Intent() (*TransferIntent, error) {
	return parseIntent(r.Sender, r.Amount, r.Recipient, r.Token, r.Nonce)
}

func parseIntent(sender, amount, recipient, token string, nonce uint64) (*TransferIntent, error) {
	if !common.IsHexAddress(sender) {
		return nil, fmt.Errorf("invalid sender address: %q", sender)
	}
	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("invalid recipient address: %q", recipient)
	}
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address: %q", token)
	}
	parsedAmount, ok := new(big.Int).SetString(amount, 10)
	if !ok || parsedAmount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	return &TransferIntent{
		Sender:    common.HexToAddress(sender),
		Amount:    parsedAmount,
		Recipient: common.HexToAddress(recipient),
		Token:     common.HexToAddress(token),
		Nonce:     nonce,
	}, nil
}
