package middleware

import (
	"context"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/builder"
)

// EOASignature signs the boost hash of a boost operation and the user op hash
// of any other operation with the owner's personal message signature.
func EOASignature(s signer.Signer) builder.Middleware {
	return func(ctx context.Context, uoc *builder.UserOpContext) error {
		hash := uoc.GetUserOpHash()
		if boostop.IsBoostOp(uoc.Op) {
			hash = uoc.GetBoostOpHash()
		}

		sig, err := s.SignMessage(hash.Bytes())
		if err != nil {
			return err
		}
		uoc.Op.Signature = sig
		return nil
	}
}
