// Package dispatch routes inbound gateway updates to the conversation
// services. Route selection replaces the original's per-handler filters:
// the single entry point classifies the update, then invokes the handler
// through an explicit middleware chain.
package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/observability"
	"github.com/boon-market/support-router/internal/service"
)

// Handler processes one routed update.
type Handler func(ctx context.Context, upd *gateway.Update) error

// Middleware wraps a handler.
type Middleware func(next Handler) Handler

// Route names used in logs and metrics.
const (
	RouteStart        = "private.start"
	RoutePrivateMsg   = "private.message"
	RouteMenuCallback = "private.menu_callback"
	RouteSurvey       = "private.survey_callback"
	RouteStaffClose   = "staff.close"
	RouteStaffReply   = "staff.reply"
	RouteGroupJoin    = "group.join"
	RouteIgnored      = "ignored"
)

// Dispatcher classifies updates and runs the matching service handler.
type Dispatcher struct {
	intake       *service.IntakeService
	router       *service.RouterService
	survey       *service.SurveyService
	staffGroupID int64
	botID        int64
	chain        []Middleware
	logger       *zap.Logger
}

// Dependencies bundles dispatcher collaborators.
type Dependencies struct {
	Intake       *service.IntakeService
	Router       *service.RouterService
	Survey       *service.SurveyService
	StaffGroupID int64
	BotID        int64
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Messenger    gateway.Messenger
}

// NewDispatcher builds the dispatcher with the standard middleware chain:
// logging outermost, then panic/error recovery.
func NewDispatcher(deps Dependencies) *Dispatcher {
	return &Dispatcher{
		intake:       deps.Intake,
		router:       deps.Router,
		survey:       deps.Survey,
		staffGroupID: deps.StaffGroupID,
		botID:        deps.BotID,
		chain: []Middleware{
			Logging(deps.Logger, deps.Metrics),
			Recover(deps.Messenger, deps.Logger, deps.Metrics),
		},
		logger: deps.Logger,
	}
}

// Dispatch routes one update. Errors escaping the middleware chain are
// already logged and classified; callers treat them as handled.
func (d *Dispatcher) Dispatch(ctx context.Context, upd *gateway.Update) error {
	route, handler := d.resolve(upd)
	if handler == nil {
		d.logger.Debug("update ignored", zap.String("route", route))
		return nil
	}
	for i := len(d.chain) - 1; i >= 0; i-- {
		handler = d.chain[i](handler)
	}
	return handler(routeInto(ctx, route), upd)
}

func (d *Dispatcher) resolve(upd *gateway.Update) (string, Handler) {
	switch {
	case upd == nil:
		return RouteIgnored, nil
	case upd.Callback != nil:
		cb := upd.Callback
		if _, ok := service.IsMenuCallback(cb.Data); ok {
			return RouteMenuCallback, func(ctx context.Context, upd *gateway.Update) error {
				return d.intake.HandleMenuCallback(ctx, upd.Callback)
			}
		}
		return RouteSurvey, func(ctx context.Context, upd *gateway.Update) error {
			return d.survey.HandleCallback(ctx, upd.Callback)
		}
	case upd.Message != nil:
		return d.resolveMessage(upd.Message)
	default:
		return RouteIgnored, nil
	}
}

func (d *Dispatcher) resolveMessage(msg *gateway.Message) (string, Handler) {
	if msg.ChatType != gateway.ChatTypePrivate {
		return d.resolveGroupMessage(msg)
	}

	if command(msg.Text) == "/start" {
		return RouteStart, func(ctx context.Context, upd *gateway.Update) error {
			return d.intake.Start(ctx, upd.Message)
		}
	}
	return RoutePrivateMsg, func(ctx context.Context, upd *gateway.Update) error {
		return d.intake.HandleMessage(ctx, upd.Message)
	}
}

func (d *Dispatcher) resolveGroupMessage(msg *gateway.Message) (string, Handler) {
	if msg.GroupCreated || d.botAmongNewMembers(msg) {
		return RouteGroupJoin, func(ctx context.Context, upd *gateway.Update) error {
			return d.router.GroupHello(ctx, upd.Message)
		}
	}
	if msg.ChatID != d.staffGroupID {
		return RouteIgnored, nil
	}
	if command(msg.Text) == "/close" {
		return RouteStaffClose, func(ctx context.Context, upd *gateway.Update) error {
			return d.router.CloseTicket(ctx, upd.Message)
		}
	}
	if msg.ReplyTo != nil && msg.ThreadID != 0 && !msg.From.IsBot {
		return RouteStaffReply, func(ctx context.Context, upd *gateway.Update) error {
			return d.router.ForwardStaffReply(ctx, upd.Message)
		}
	}
	return RouteIgnored, nil
}

func (d *Dispatcher) botAmongNewMembers(msg *gateway.Message) bool {
	for _, member := range msg.NewMembers {
		if member.ID == d.botID {
			return true
		}
	}
	return false
}

// command extracts a leading bot command, stripping the @mention suffix.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}
