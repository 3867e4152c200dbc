package services

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/application/ports"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"
	"marketplace-backend/pkg/observability"
	"marketplace-backend/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultDecryptConcurrency bounds parallel gateway calls when a list read
// decrypts many records.
const defaultDecryptConcurrency = 8

// entity describes how one record type is stored.
type entity struct {
	name string
	// sensitive attributes hold ciphertext at rest.
	sensitive []string
	// hidden attributes are never returned to clients or sent downstream.
	hidden []string
}

// Pipeline is the shared write path (encrypt, persist, notify) and read path
// (fetch, decrypt, project) every entity service is built on.
type Pipeline struct {
	gateway     ports.Gateway
	store       ports.RecordStore
	notifier    *Notifier
	metrics     ports.Metrics
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// NewPipeline creates the shared pipeline.
func NewPipeline(gateway ports.Gateway, store ports.RecordStore, notifier *Notifier, metrics ports.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		gateway:     gateway,
		store:       store,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		concurrency: defaultDecryptConcurrency,
	}
}

func (p *Pipeline) timestamp() string {
	return utils.FormatTimestamp(p.now())
}

// observe records the outcome of a service operation. Call it deferred with
// a pointer to the named error result.
func (p *Pipeline) observe(operation string, start time.Time, errp *error) {
	outcome := observability.OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = observability.OutcomeFailure
	}
	p.metrics.RecordOperation(operation, outcome, time.Since(start))
}

func (p *Pipeline) encrypt(ctx context.Context, fields map[string]string) (map[string]string, error) {
	enc, err := p.gateway.EncryptFields(ctx, fields)
	if err != nil {
		return nil, apperrors.NewEncryptionFailed(err)
	}
	for name, value := range fields {
		if value != "" && enc[name] == "" {
			return nil, apperrors.NewEncryptionFailed(errors.New("gateway omitted field " + name))
		}
	}
	return enc, nil
}

func (p *Pipeline) encryptText(ctx context.Context, plaintext string) (string, error) {
	enc, err := p.gateway.EncryptText(ctx, plaintext)
	if err != nil {
		return "", apperrors.NewEncryptionFailed(err)
	}
	return enc, nil
}

func storageError(operation string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.NewStorageFailed(operation, err)
}

// createSpec parameterises one create.
type createSpec struct {
	operation string
	action    string
	entity    entity
	plain     map[string]string
	// enc replaces plain when the caller already holds the ciphertexts.
	enc   map[string]string
	build func(enc map[string]string) records.Record
	// conflict, when set, makes the put conditional on the key being absent
	// and is the message returned when it is not.
	conflict string
}

func (p *Pipeline) create(ctx context.Context, spec createSpec) (records.Record, NotifyResult, error) {
	enc := spec.enc
	if enc == nil {
		var err error
		if enc, err = p.encrypt(ctx, spec.plain); err != nil {
			return records.Record{}, NotifyResult{}, err
		}
	}

	rec := spec.build(enc)

	var cond records.Condition
	if spec.conflict != "" {
		cond.MustNotExist = true
	}
	if err := p.store.Put(ctx, rec, cond); err != nil {
		if errors.Is(err, records.ErrConditionFailed) {
			return records.Record{}, NotifyResult{}, apperrors.NewBadRequest(spec.conflict).WithCode(apperrors.CodeConflict)
		}
		return records.Record{}, NotifyResult{}, storageError("put", err)
	}

	p.logger.Info("Record created",
		zap.String("operation", spec.operation),
		zap.String("entity", spec.entity.name),
	)

	return rec, p.notifier.Notify(ctx, spec.action, rec, spec.entity.hidden), nil
}

// lookupFunc finds the current record of an update or delete.
type lookupFunc func(ctx context.Context, enc map[string]string) (records.Record, error)

// authorizeFunc inspects the current record, still encrypted, against the
// encrypted request values.
type authorizeFunc func(current records.Record, enc map[string]string) error

// updateSpec parameterises one partial update.
type updateSpec struct {
	operation string
	action    string
	entity    entity
	plain     map[string]string
	key       func(enc map[string]string) records.KeyPair
	lookup    lookupFunc
	authorize authorizeFunc
	set       func(enc map[string]string, current records.Record) (map[string]any, error)
	// condition is checked in addition to the item still existing.
	condition records.Condition
	// conflict is returned when condition fails on an existing item.
	conflict string
}

func (p *Pipeline) update(ctx context.Context, spec updateSpec) (records.Record, NotifyResult, error) {
	enc, err := p.encrypt(ctx, spec.plain)
	if err != nil {
		return records.Record{}, NotifyResult{}, err
	}

	current, err := p.find(ctx, spec.entity, spec.key, spec.lookup, enc)
	if err != nil {
		return records.Record{}, NotifyResult{}, err
	}

	if spec.authorize != nil {
		if err := spec.authorize(current, enc); err != nil {
			return records.Record{}, NotifyResult{}, err
		}
	}

	set, err := spec.set(enc, current)
	if err != nil {
		return records.Record{}, NotifyResult{}, err
	}
	// An empty string never replaces a stored value.
	for name, v := range set {
		if s, ok := v.(string); ok && s == "" {
			delete(set, name)
		}
	}
	set[records.AttrUpdatedAt] = p.timestamp()

	cond := spec.condition
	cond.MustExist = true

	updated, err := p.store.Update(ctx, records.Update{Key: current.Key(), Set: set, Condition: cond})
	if err != nil {
		if errors.Is(err, records.ErrConditionFailed) {
			if spec.conflict != "" {
				return records.Record{}, NotifyResult{}, apperrors.NewBadRequest(spec.conflict).WithCode(apperrors.CodeConflict)
			}
			return records.Record{}, NotifyResult{}, apperrors.NewNotFound(spec.entity.name)
		}
		return records.Record{}, NotifyResult{}, storageError("update", err)
	}

	p.logger.Info("Record updated",
		zap.String("operation", spec.operation),
		zap.String("entity", spec.entity.name),
		zap.Int("fields", len(set)),
	)

	return updated, p.notifier.Notify(ctx, spec.action, updated, spec.entity.hidden), nil
}

// deleteSpec parameterises one read-then-delete.
type deleteSpec struct {
	operation string
	action    string
	entity    entity
	plain     map[string]string
	key       func(enc map[string]string) records.KeyPair
	lookup    lookupFunc
	authorize authorizeFunc
}

func (p *Pipeline) remove(ctx context.Context, spec deleteSpec) (records.Record, NotifyResult, error) {
	enc, err := p.encrypt(ctx, spec.plain)
	if err != nil {
		return records.Record{}, NotifyResult{}, err
	}

	current, err := p.find(ctx, spec.entity, spec.key, spec.lookup, enc)
	if err != nil {
		return records.Record{}, NotifyResult{}, err
	}

	if spec.authorize != nil {
		if err := spec.authorize(current, enc); err != nil {
			return records.Record{}, NotifyResult{}, err
		}
	}

	if err := p.store.Delete(ctx, current.Key(), records.Condition{MustExist: true}); err != nil {
		if errors.Is(err, records.ErrConditionFailed) {
			return records.Record{}, NotifyResult{}, apperrors.NewNotFound(spec.entity.name)
		}
		return records.Record{}, NotifyResult{}, storageError("delete", err)
	}

	p.logger.Info("Record deleted",
		zap.String("operation", spec.operation),
		zap.String("entity", spec.entity.name),
	)

	return current, p.notifier.Notify(ctx, spec.action, current, spec.entity.hidden), nil
}

func (p *Pipeline) find(ctx context.Context, e entity, key func(map[string]string) records.KeyPair, lookup lookupFunc, enc map[string]string) (records.Record, error) {
	if lookup != nil {
		return lookup(ctx, enc)
	}
	return p.mustGet(ctx, e, key(enc))
}

// mustGet is a point read that maps absence to NotFound.
func (p *Pipeline) mustGet(ctx context.Context, e entity, key records.KeyPair) (records.Record, error) {
	rec, found, err := p.store.Get(ctx, key)
	if err != nil {
		return records.Record{}, storageError("get", err)
	}
	if !found {
		return records.Record{}, apperrors.NewNotFound(e.name)
	}
	return rec, nil
}

// get is a point read followed by decryption. A decryption failure fails the
// request.
func (p *Pipeline) get(ctx context.Context, e entity, key records.KeyPair) (map[string]any, error) {
	rec, err := p.mustGet(ctx, e, key)
	if err != nil {
		return nil, err
	}
	return p.project(ctx, e, rec)
}

// project decrypts the sensitive attributes of rec into a client view.
func (p *Pipeline) project(ctx context.Context, e entity, rec records.Record) (map[string]any, error) {
	ciphertexts := make(map[string]string, len(e.sensitive))
	for _, name := range e.sensitive {
		if v := rec.String(name); v != "" {
			ciphertexts[name] = v
		}
	}

	view := make(map[string]any, len(rec.Attributes))
	for k, v := range rec.Attributes {
		view[k] = v
	}
	for _, h := range e.hidden {
		delete(view, h)
	}
	delete(view, records.AttrEntityType)

	if len(ciphertexts) == 0 {
		return view, nil
	}

	plain, err := p.gateway.DecryptFields(ctx, ciphertexts)
	if err != nil {
		return nil, apperrors.NewDecryptionFailed(err)
	}
	for name := range ciphertexts {
		v, ok := plain[name]
		if !ok {
			return nil, apperrors.NewDecryptionFailed(errors.New("gateway omitted field " + name))
		}
		view[name] = v
	}
	return view, nil
}

// projected pairs a decrypted view with the record it came from.
type projected struct {
	view   map[string]any
	source records.Record
}

// projectAll decrypts every record and silently drops those that fail, so a
// single bad record cannot fail a list read. Order is preserved.
func (p *Pipeline) projectAll(ctx context.Context, e entity, recs []records.Record) []projected {
	results := make([]*projected, len(recs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, rec := range recs {
		g.Go(func() error {
			view, err := p.project(ctx, e, rec)
			if err != nil {
				p.logger.Warn("Skipping record that failed decryption",
					zap.String("entity", e.name),
					zap.String("pk", rec.PartitionKey),
					zap.Error(err),
				)
				return nil
			}
			results[i] = &projected{view: view, source: rec}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]projected, 0, len(recs))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func views(items []projected) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = item.view
	}
	return out
}

// ownedBy returns an authorizeFunc requiring attr to equal the encrypted
// caller. Deterministic ciphertext makes the comparison valid without
// decrypting.
func ownedBy(attr, what string) authorizeFunc {
	return func(current records.Record, enc map[string]string) error {
		caller, ok := enc[fieldCaller]
		if !ok || caller == "" {
			return nil
		}
		if current.String(attr) != caller {
			return apperrors.NewForbidden("only the " + what + " may do this")
		}
		return nil
	}
}

// fieldCaller is the pseudo-field the caller id is encrypted under.
const fieldCaller = "callerId"

// fieldSK is the pseudo-field a fixed sort key label is encrypted under.
const fieldSK = "SK"

// withCaller adds the caller to a batch of plaintexts when authenticated.
func withCaller(fields map[string]string, callerID string) map[string]string {
	if callerID != "" {
		fields[fieldCaller] = callerID
	}
	return fields
}

// setPresent copies the named encrypted values into set when they were part
// of the request. Empty values count as absent.
func setPresent(set map[string]any, enc map[string]string, names ...string) {
	for _, name := range names {
		if v, ok := enc[name]; ok && v != "" {
			set[name] = v
		}
	}
}
