package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/observability"
	"github.com/boon-market/support-router/internal/repository"
	"github.com/boon-market/support-router/pkg/util/errorutil"
)

type routeKeyType struct{}

var routeKey routeKeyType

func routeInto(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey, route)
}

func routeFrom(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey).(string); ok {
		return route
	}
	return "unknown"
}

// transientNotice is the generic user-facing failure text sent when a
// handler fails after its conversation effects could not complete.
const transientNotice = "Временная ошибка в системе. Попробуйте позже."

// Logging logs every dispatched update before and after execution and
// records the update counter.
func Logging(logger *zap.Logger, metrics *observability.Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, upd *gateway.Update) error {
			route := routeFrom(ctx)
			metrics.RecordUpdate(route)
			start := time.Now()
			logger.Info("dispatching update",
				zap.String("route", route),
				zap.Int64("chat_id", updateChatID(upd)))
			err := next(ctx, upd)
			logger.Info("update handled",
				zap.String("route", route),
				zap.Duration("duration", time.Since(start)),
				zap.Bool("ok", err == nil))
			return err
		}
	}
}

// Recover converts handler panics into errors, classifies failures into
// the error taxonomy, records them, and notifies the originating private
// chat with a generic transient notice. The failure never propagates to
// the webhook response: the gateway must not retry a half-applied update.
func Recover(messenger gateway.Messenger, logger *zap.Logger, metrics *observability.Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, upd *gateway.Update) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errorutil.NewInternalError(fmt.Errorf("panic: %v", r))
				}
				if err == nil {
					return
				}
				route := routeFrom(ctx)
				domainErr := classifyError(err)
				metrics.RecordError(route, domainErr.Code)
				logger.Error("update handler failed",
					zap.String("route", route),
					zap.String("code", domainErr.Code),
					zap.Error(err))
				notifyUser(ctx, messenger, upd, logger)
				err = nil
			}()
			return next(ctx, upd)
		}
	}
}

// classifyError maps transport and storage sentinels that escaped a
// handler onto the error taxonomy. DomainErrors pass through unchanged;
// anything unrecognized counts as INTERNAL_ERROR.
func classifyError(err error) *errorutil.DomainError {
	var domainErr *errorutil.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case gateway.IsBadRequest(err):
		err = errorutil.NewTransportBadRequest(err)
	case gateway.IsForbidden(err):
		err = errorutil.NewTransportForbidden(err)
	case errors.Is(err, repository.ErrTicketNotFound):
		err = errorutil.NewNotFound("ticket", nil)
	case errors.Is(err, repository.ErrAccountNotFound):
		err = errorutil.NewNotFound("account", nil)
	case errors.Is(err, repository.ErrThreadAlreadyBound), errors.Is(err, repository.ErrAlreadyRated):
		err = errorutil.NewConflict(err.Error(), nil)
	}
	return errorutil.ToDomainError(err)
}

// notifyUser tells the affected private chat that something went wrong.
// Staff-group routes stay silent; staff see the thread state directly.
func notifyUser(ctx context.Context, messenger gateway.Messenger, upd *gateway.Update, logger *zap.Logger) {
	chatID := privateChatID(upd)
	if chatID == 0 {
		return
	}
	if _, err := messenger.SendText(ctx, chatID, transientNotice, gateway.SendOptions{}); err != nil {
		logger.Warn("failure notice delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func updateChatID(upd *gateway.Update) int64 {
	switch {
	case upd == nil:
		return 0
	case upd.Message != nil:
		return upd.Message.ChatID
	case upd.Callback != nil && upd.Callback.Message != nil:
		return upd.Callback.Message.ChatID
	default:
		return 0
	}
}

func privateChatID(upd *gateway.Update) int64 {
	if upd == nil {
		return 0
	}
	if upd.Message != nil && upd.Message.ChatType == gateway.ChatTypePrivate {
		return upd.Message.ChatID
	}
	if upd.Callback != nil && upd.Callback.Message != nil && upd.Callback.Message.ChatType == gateway.ChatTypePrivate {
		return upd.Callback.Message.ChatID
	}
	return 0
}
