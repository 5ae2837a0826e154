package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer matching the handler result type
}

type IdempotencyRecord struct {
	Key     string
	Payload []byte
	Error   string
	// Pending marks a claim whose command has not finished yet.
	Pending    bool
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	// Reserve atomically claims key for one execution. It reports false when
	// a finished record or a live claim younger than lease already exists.
	Reserve(ctx context.Context, key string, lease time.Duration) (bool, error)
	// Release drops a pending claim so the key can be retried.
	Release(ctx context.Context, key string) error
	// Save stores the final outcome and clears the claim.
	Save(ctx context.Context, rec IdempotencyRecord) error
}

// ReservationLease bounds how long a crashed execution can hold a key.
const ReservationLease = time.Minute

// ErrRequestInFlight is returned while another request with the same key runs.
var ErrRequestInFlight = errors.New("middleware: request with this idempotency key is in progress")

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored outcome of a command key. The key is claimed
// before the handler runs, so concurrent first requests execute once and the
// others get a conflict. Retryable failures release the claim so the client
// can try again with the same key.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			key = cmd.Key() + ":" + key
			if rec, found, err := store.Get(ctx, key); err != nil {
				return nil, apperr.Unavailable(err)
			} else if found {
				return replayOrWait(rec, idCmd, codec)
			}
			claimed, err := store.Reserve(ctx, key, ReservationLease)
			if err != nil {
				return nil, apperr.Unavailable(err)
			}
			if !claimed {
				rec, found, err := store.Get(ctx, key)
				if err != nil {
					return nil, apperr.Unavailable(err)
				}
				if !found {
					return nil, apperr.Wrap(apperr.KindConflict, ErrRequestInFlight)
				}
				return replayOrWait(rec, idCmd, codec)
			}

			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if err != nil {
				if apperr.Retryable(err) {
					if relErr := store.Release(ctx, key); relErr != nil {
						return nil, errors.Join(err, relErr)
					}
					return nil, err
				}
				record.Error = err.Error()
				record.ErrorKind = string(apperr.KindOf(err))
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					_ = store.Release(ctx, key)
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replayOrWait(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Pending {
		return nil, apperr.Wrap(apperr.KindConflict, ErrRequestInFlight)
	}
	return replay(rec, cmd, codec)
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		return nil, apperr.Wrap(apperr.Kind(rec.ErrorKind), errors.New(rec.Error))
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
