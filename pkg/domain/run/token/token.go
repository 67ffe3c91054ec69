package token

import (
	"context"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	keychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain/keyprovider"
)

// RunClaim is the payload of a run token.
//
// Workers and model servers present it as a Bearer token on artifact
// routes; the claims bound what the token may touch.
type RunClaim struct {
	jwt.RegisteredClaims

	// private claims
	RunId   string `json:"mlrun/runId"`
	Project string `json:"mlrun/project"`
}

// Sign mints a run token for the run.
//
// The token expires with the signing key provided by kp.
func Sign(ctx context.Context, kp keyprovider.KeyProvider, runId string, projectName string) (string, error) {
	kid, key, err := kp.Provide(ctx)
	if err != nil {
		return "", err
	}

	return keychain.NewJWS(
		kid, key,
		RunClaim{
			RegisteredClaims: jwt.RegisteredClaims{
				// jti
				ID: uuid.NewString(),

				// sub
				Subject: runId,
			},

			RunId:   runId,
			Project: projectName,
		},
	)
}

// Verify checks the token against the keychain in kp and returns its claims.
//
// Errors from broken, expired or foreign-signed tokens wrap
// [keychain.ErrInvalidToken].
func Verify(ctx context.Context, kp keyprovider.KeyProvider, token string) (*RunClaim, error) {
	kc, err := kp.GetKeychain(ctx)
	if err != nil {
		return nil, err
	}
	return keychain.VerifyJWS[*RunClaim](kc, token)
}
