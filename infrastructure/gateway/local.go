package gateway

import (
	"context"

	"marketplace-backend/application/ports"
	"marketplace-backend/pkg/cipher"
	"marketplace-backend/pkg/observability"
)

// LocalGateway runs the field cipher in process. It is used when the
// service runs outside Lambda.
type LocalGateway struct {
	cipher  *cipher.FieldCipher
	metrics ports.Metrics
}

var _ ports.Gateway = (*LocalGateway)(nil)

func NewLocalGateway(c *cipher.FieldCipher, metrics ports.Metrics) *LocalGateway {
	return &LocalGateway{cipher: c, metrics: metrics}
}

func (g *LocalGateway) EncryptText(_ context.Context, plaintext string) (string, error) {
	out, err := g.cipher.Encrypt(plaintext)
	g.record(DirectionEncrypt, err)
	return out, err
}

func (g *LocalGateway) EncryptFields(_ context.Context, fields map[string]string) (map[string]string, error) {
	out, err := g.cipher.EncryptFields(fields)
	g.record(DirectionEncrypt, err)
	return out, err
}

func (g *LocalGateway) DecryptText(_ context.Context, ciphertext string) (string, error) {
	out, err := g.cipher.Decrypt(ciphertext)
	g.record(DirectionDecrypt, err)
	return out, err
}

func (g *LocalGateway) DecryptFields(_ context.Context, fields map[string]string) (map[string]string, error) {
	out, err := g.cipher.DecryptFields(fields)
	g.record(DirectionDecrypt, err)
	return out, err
}

func (g *LocalGateway) record(direction string, err error) {
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeFailure
	}
	g.metrics.RecordGatewayCall(direction, outcome)
}
