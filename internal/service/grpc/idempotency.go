package grpcsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const idempotencyKeyHeader = "idempotency-key"

const failedReplayMessage = "previous request with the same idempotency key failed"

var errNilRequest = errors.New("request is nil")

// replayedFailure — ошибка обработчика в виде, пригодном для повтора клиенту.
type replayedFailure struct {
	Code    codes.Code `json:"code"`
	Message string     `json:"message"`
}

// withIdempotency выполняет handler не более одного раза на ключ аккаунта.
// Без заголовка idempotency-key запрос обрабатывается как обычно.
func withIdempotency[T any](
	s *ShopService,
	ctx context.Context,
	method string,
	accountID string,
	req any,
	handler func(context.Context) (*T, error),
) (*T, error) {
	if s.idemRepo == nil {
		return handler(ctx)
	}
	value, ok := readIdempotencyKey(ctx)
	if !ok {
		return handler(ctx)
	}

	key := domain.NewIdempotencyKey(accountID, value)
	entry := s.logger.WithFields(log.Fields{"method": method, "idempotency_key": key.String()})

	fingerprint, err := requestFingerprint(req)
	if err != nil {
		entry.WithError(err).Warn("failed to fingerprint idempotent request")
		return nil, status.Error(codes.Internal, "failed to initialize idempotency request")
	}

	current, err := s.idemRepo.Claim(ctx, domain.NewIdempotencyClaim(key, method, fingerprint, s.now(), domain.DefaultIdempotencyTTL))
	if err != nil {
		return replayIdempotent[T](entry, current, err)
	}

	resp, runErr := handler(ctx)
	// Итог фиксируется и после отмены запроса: иначе ключ останется
	// в processing до истечения TTL и повторы не получат ответ.
	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		s.storeFailure(storeCtx, entry, key, runErr)
		return nil, runErr
	}
	s.storeSuccess(storeCtx, entry, key, resp)
	return resp, nil
}

// replayIdempotent отвечает на запрос, ключ которого уже занят.
func replayIdempotent[T any](entry *log.Entry, current domain.IdempotencyRecord, claimErr error) (*T, error) {
	switch {
	case errors.Is(claimErr, domain.ErrIdempotencyHashMismatch):
		return nil, status.Error(codes.AlreadyExists, "idempotency key is already used with different request payload")
	case !errors.Is(claimErr, domain.ErrIdempotencyKeyAlreadyExists):
		entry.WithError(claimErr).Warn("failed to claim idempotency key")
		return nil, status.Error(codes.Internal, "failed to initialize idempotency request")
	}

	switch current.Status {
	case domain.IdempotencyStatusProcessing:
		return nil, status.Error(codes.Aborted, "request with the same idempotency key is already processing")
	case domain.IdempotencyStatusFailed:
		return nil, failureFromRecord(current)
	case domain.IdempotencyStatusDone:
		resp := new(T)
		if len(current.Response) == 0 {
			return nil, status.Error(codes.Internal, "idempotency cache is empty")
		}
		if err := json.Unmarshal(current.Response, resp); err != nil {
			entry.WithError(err).Warn("failed to decode cached idempotent response")
			return nil, status.Error(codes.Internal, "failed to decode cached idempotency response")
		}
		return resp, nil
	default:
		return nil, status.Error(codes.Internal, "unknown idempotency record status")
	}
}

func (s *ShopService) storeSuccess(ctx context.Context, entry *log.Entry, key domain.IdempotencyKey, resp any) {
	body, err := json.Marshal(resp)
	if err == nil {
		err = s.idemRepo.Complete(ctx, key, domain.IdempotencyStatusDone, body, int(codes.OK))
	}
	if err != nil {
		entry.WithError(err).Warn("failed to store idempotent response")
	}
}

func (s *ShopService) storeFailure(ctx context.Context, entry *log.Entry, key domain.IdempotencyKey, runErr error) {
	st := status.Convert(runErr)
	failure := replayedFailure{Code: st.Code(), Message: st.Message()}
	if failure.Code == codes.OK {
		failure.Code = codes.Internal
	}

	body, err := json.Marshal(failure)
	if err != nil {
		entry.WithError(err).Warn("failed to encode idempotent failure")
		body = nil
	}
	if err := s.idemRepo.Complete(ctx, key, domain.IdempotencyStatusFailed, body, int(failure.Code)); err != nil {
		entry.WithError(err).Warn("failed to store idempotent failure")
	}
}

// failureFromRecord восстанавливает сохранённую ошибку. codes.Code сам
// отвергает значения вне диапазона при разборе JSON.
func failureFromRecord(record domain.IdempotencyRecord) error {
	var failure replayedFailure
	if len(record.Response) > 0 && json.Unmarshal(record.Response, &failure) == nil && failure.Code != codes.OK {
		if failure.Message == "" {
			failure.Message = failedReplayMessage
		}
		return status.Error(failure.Code, failure.Message)
	}

	var code codes.Code
	if record.Code > 0 && code.UnmarshalJSON([]byte(strconv.Itoa(record.Code))) == nil {
		return status.Error(code, failedReplayMessage)
	}
	return status.Error(codes.Internal, failedReplayMessage)
}

func readIdempotencyKey(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(idempotencyKeyHeader) {
		if value = strings.TrimSpace(value); value != "" {
			return value, true
		}
	}
	return "", false
}

// requestFingerprint — sha256 от JSON-представления запроса. Метод хранится
// в записи отдельно и сравнивается при повторе.
func requestFingerprint(req any) (string, error) {
	if req == nil {
		return "", errNilRequest
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
