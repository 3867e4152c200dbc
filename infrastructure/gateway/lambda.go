// Package gateway provides the encryption indirection used by every service:
// a client of the gateway Lambdas, an in-process variant for local runs and
// a circuit breaker that wraps either.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"marketplace-backend/application/ports"
	"marketplace-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Directions of a gateway call.
const (
	DirectionEncrypt = "encrypt"
	DirectionDecrypt = "decrypt"
)

var (
	// ErrMalformedResponse is returned when the gateway answers with a body
	// that does not carry the expected output.
	ErrMalformedResponse = errors.New("malformed gateway response")
	// ErrGatewayStatus is returned for a non-2xx gateway status code.
	ErrGatewayStatus = errors.New("gateway returned an error status")
)

// InvokeAPI is the subset of the Lambda API the gateway uses.
type InvokeAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

var _ InvokeAPI = (*lambda.Client)(nil)

// LambdaGateway invokes the encrypt and decrypt functions synchronously.
type LambdaGateway struct {
	client    InvokeAPI
	encryptFn string
	decryptFn string
	tracer    *observability.Tracer
	metrics   ports.Metrics
	logger    *zap.Logger
}

var _ ports.Gateway = (*LambdaGateway)(nil)

func NewLambdaGateway(client InvokeAPI, encryptFn, decryptFn string, tracer *observability.Tracer, metrics ports.Metrics, logger *zap.Logger) *LambdaGateway {
	return &LambdaGateway{
		client:    client,
		encryptFn: encryptFn,
		decryptFn: decryptFn,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}
}

// envelope is the gateway's response; body is an object or a JSON string
// holding one.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

type responseBody struct {
	EncryptedData json.RawMessage `json:"encryptedData"`
	DecryptedData json.RawMessage `json:"decryptedData"`
	Message       string          `json:"message"`
}

func (g *LambdaGateway) EncryptText(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var out string
	err := g.call(ctx, DirectionEncrypt, map[string]any{"text": plaintext}, &out)
	return out, err
}

func (g *LambdaGateway) EncryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	return g.callFields(ctx, DirectionEncrypt, fields)
}

func (g *LambdaGateway) DecryptText(ctx context.Context, ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	var out string
	err := g.call(ctx, DirectionDecrypt, map[string]any{"encryptedText": ciphertext}, &out)
	return out, err
}

func (g *LambdaGateway) DecryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	return g.callFields(ctx, DirectionDecrypt, fields)
}

// callFields sends only non-empty values; empty ones are copied through.
func (g *LambdaGateway) callFields(ctx context.Context, direction string, fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	data := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == "" {
			out[k] = ""
			continue
		}
		data[k] = v
	}
	if len(data) == 0 {
		return out, nil
	}

	var converted map[string]string
	if err := g.call(ctx, direction, map[string]any{"data": data}, &converted); err != nil {
		return nil, err
	}
	for k := range data {
		v, ok := converted[k]
		if !ok {
			return nil, fmt.Errorf("%w: field %s missing", ErrMalformedResponse, k)
		}
		out[k] = v
	}
	return out, nil
}

func (g *LambdaGateway) call(ctx context.Context, direction string, request map[string]any, out any) error {
	fn := g.encryptFn
	if direction == DirectionDecrypt {
		fn = g.decryptFn
	}

	err := g.tracer.TraceFunction(ctx, "gateway."+direction, func(ctx context.Context) error {
		g.tracer.AddAnnotation(ctx, "direction", direction)
		g.tracer.AddAnnotation(ctx, "function", fn)
		return g.invoke(ctx, fn, direction, request, out)
	})

	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeFailure
		g.logger.Error("Gateway call failed",
			zap.String("direction", direction),
			zap.String("function", fn),
			zap.Error(err),
		)
	}
	g.metrics.RecordGatewayCall(direction, outcome)
	return err
}

func (g *LambdaGateway) invoke(ctx context.Context, fn, direction string, request map[string]any, out any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	res, err := g.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(fn),
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", fn, err)
	}
	if res.FunctionError != nil {
		return fmt.Errorf("%s failed: %s: %s", fn, aws.ToString(res.FunctionError), string(res.Payload))
	}

	body, status, err := decodeEnvelope(res.Payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w %d: %s", ErrGatewayStatus, status, body.Message)
	}

	data := body.EncryptedData
	if direction == DirectionDecrypt {
		data = body.DecryptedData
	}
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: no output", ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeEnvelope(payload []byte) (responseBody, int, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return responseBody{}, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	raw := []byte(env.Body)
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = []byte(asString)
	}

	var body responseBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return responseBody{}, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return body, env.StatusCode, nil
}
