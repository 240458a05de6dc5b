package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/config"
	"github.com/boon-market/support-router/internal/conversation"
	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/menu"
	"github.com/boon-market/support-router/internal/repository"
)

const orderDateLayout = "02.01.2006"

// IntakeService drives the guided intake conversation: phone sharing,
// category choice, order selection and the free-form description that
// turns into a ticket.
type IntakeService struct {
	states    conversation.Store
	directory *DirectoryService
	orders    repository.OrderRepository
	router    *RouterService
	menu      *menu.Menu
	messenger gateway.Messenger
	cfg       config.SupportConfig
	logger    *zap.Logger
}

// IntakeDependencies bundles collaborators for intake.
type IntakeDependencies struct {
	States    conversation.Store
	Directory *DirectoryService
	OrderRepo repository.OrderRepository
	Router    *RouterService
	Menu      *menu.Menu
	Messenger gateway.Messenger
	Cfg       config.SupportConfig
	Logger    *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		states:    deps.States,
		directory: deps.Directory,
		orders:    deps.OrderRepo,
		router:    deps.Router,
		menu:      deps.Menu,
		messenger: deps.Messenger,
		cfg:       deps.Cfg,
		logger:    deps.Logger,
	}
}

// Start handles /start: greets the user and either asks for a phone number
// or, for a chat already linked to an account, goes straight to categories.
func (s *IntakeService) Start(ctx context.Context, msg *gateway.Message) error {
	if err := s.states.Clear(ctx, msg.ChatID); err != nil {
		s.logger.Warn("state clear failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
	if _, err := s.messenger.SendText(ctx, msg.ChatID, textGreeting, gateway.SendOptions{}); err != nil {
		return err
	}

	account, err := s.directory.FindByChatID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if account == nil || account.Phone == nil {
		// A linked account without a phone still has to prove identity.
		kb := &gateway.Keyboard{OneTime: true, Rows: [][]gateway.Button{
			{{Label: btnSharePhone, RequestContact: true}},
		}}
		if _, err := s.messenger.SendText(ctx, msg.ChatID, textAskPhone, gateway.SendOptions{Keyboard: kb}); err != nil {
			return err
		}
		return s.put(ctx, msg.ChatID, &conversation.State{Step: conversation.StepAwaitingPhone})
	}
	return s.showCategories(ctx, msg.ChatID)
}

// HandleMessage advances the intake conversation one step. Chats with no
// intake in flight fall through to ticket forwarding.
func (s *IntakeService) HandleMessage(ctx context.Context, msg *gateway.Message) error {
	state, err := s.states.Get(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &conversation.State{}
	}

	switch state.Step {
	case conversation.StepAwaitingPhone:
		return s.handleContact(ctx, msg)
	case conversation.StepCategory:
		return s.handleCategory(ctx, msg, state)
	case conversation.StepOrderSelect:
		return s.handleOrderSelect(ctx, msg, state)
	case conversation.StepDescription:
		return s.handleDescription(ctx, msg, state)
	default:
		return s.router.ForwardUserMessage(ctx, msg)
	}
}

func (s *IntakeService) handleContact(ctx context.Context, msg *gateway.Message) error {
	contact := msg.Contact
	if contact == nil || (contact.OwnerID != 0 && contact.OwnerID != msg.From.ID) {
		_, err := s.messenger.SendText(ctx, msg.ChatID, textShareOwnContact, gateway.SendOptions{})
		return err
	}
	phone, err := NormalizePhone(contact.PhoneNumber)
	if err != nil {
		_, err := s.messenger.SendText(ctx, msg.ChatID, textInvalidPhone, gateway.SendOptions{})
		return err
	}

	account, err := s.directory.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if account != nil {
		if err := s.directory.LinkChatID(ctx, account, msg.ChatID); err != nil {
			return err
		}
		s.logger.Info("chat linked to account",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("account_id", account.ID),
			zap.String("phone", redactPhone(phone)))
	} else {
		s.logger.Info("phone not registered, continuing as guest",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("phone", redactPhone(phone)))
	}
	// Unregistered phones continue as guests; the category step does not
	// depend on an account.
	return s.showCategories(ctx, msg.ChatID)
}

func (s *IntakeService) handleCategory(ctx context.Context, msg *gateway.Message, state *conversation.State) error {
	switch msg.Text {
	case btnCategoryOrder:
		return s.startOrderSelection(ctx, msg, state, categoryOrderIssue)
	case btnCategoryDelivery:
		return s.startOrderSelection(ctx, msg, state, categoryDeliveryIssue)
	case btnCategoryOther:
		state.Step = conversation.StepDescription
		state.Category = categoryOther
		state.Order = orderUnspecified
		if err := s.put(ctx, msg.ChatID, state); err != nil {
			return err
		}
		_, err := s.messenger.SendText(ctx, msg.ChatID, textAskDescription, gateway.SendOptions{RemoveKeyboard: true})
		return err
	case btnFAQ:
		return s.ShowMenu(ctx, msg.ChatID)
	default:
		_, err := s.messenger.SendText(ctx, msg.ChatID, textUnknownCommand, gateway.SendOptions{Keyboard: categoryKeyboard()})
		return err
	}
}

// startOrderSelection lists the account's recent orders, or jumps straight
// to the description step for guests.
func (s *IntakeService) startOrderSelection(ctx context.Context, msg *gateway.Message, state *conversation.State, category string) error {
	state.Category = category

	account, err := s.directory.FindByChatID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if account == nil {
		state.Step = conversation.StepDescription
		state.Order = orderUnspecified
		if err := s.put(ctx, msg.ChatID, state); err != nil {
			return err
		}
		_, err := s.messenger.SendText(ctx, msg.ChatID, fmt.Sprintf(textGuestNoOrders, category), gateway.SendOptions{RemoveKeyboard: true})
		return err
	}

	orders, err := s.orders.RecentByAccount(ctx, account.ID, s.cfg.RecentOrderLimit)
	if err != nil {
		return err
	}

	state.OrdersMap = make(map[string]string, len(orders))
	var rows [][]string
	for i, order := range orders {
		if order.OrderNumber == nil {
			continue
		}
		label := s.orderLabel(ctx, order, i == 0)
		state.OrdersMap[label] = *order.OrderNumber
		rows = append(rows, []string{label})
	}
	rows = append(rows, []string{btnCategoryOther}, []string{btnBackToCategories})

	text := fmt.Sprintf(textChooseOrder, category)
	if len(state.OrdersMap) == 0 {
		text += textNoRecentOrders
	}
	state.Step = conversation.StepOrderSelect
	if err := s.put(ctx, msg.ChatID, state); err != nil {
		return err
	}
	_, err = s.messenger.SendText(ctx, msg.ChatID, text, gateway.SendOptions{Keyboard: gateway.NewReplyKeyboard(rows...)})
	return err
}

// orderLabel renders a selectable order row. The most recent order is
// highlighted without its number to keep the button short.
func (s *IntakeService) orderLabel(ctx context.Context, order domain.Order, latest bool) string {
	date := ""
	if order.CreatedAt != nil {
		date = order.CreatedAt.Format(orderDateLayout)
	}
	title := ""
	if order.StoreID != nil {
		t, err := s.orders.StoreTitle(ctx, *order.StoreID)
		if err != nil {
			s.logger.Warn("store title lookup failed", zap.String("store", *order.StoreID), zap.Error(err))
		} else {
			title = t
		}
	}
	if latest {
		return strings.TrimSpace(fmt.Sprintf(labelLastOrder, date, title))
	}
	return strings.TrimSpace(fmt.Sprintf(labelNumberedOrder, *order.OrderNumber, date, title))
}

func (s *IntakeService) handleOrderSelect(ctx context.Context, msg *gateway.Message, state *conversation.State) error {
	switch msg.Text {
	case btnBackToCategories:
		state.Step = conversation.StepCategory
		state.OrdersMap = nil
		if err := s.put(ctx, msg.ChatID, state); err != nil {
			return err
		}
		return s.showCategories(ctx, msg.ChatID)
	case btnCategoryOther:
		state.Order = orderUnspecified
	default:
		number, ok := state.OrdersMap[msg.Text]
		if !ok {
			// Labels may arrive retyped; salvage the number after "№".
			number, ok = parseOrderNumber(msg.Text)
		}
		if !ok {
			_, err := s.messenger.SendText(ctx, msg.ChatID, textOrderParseFail, gateway.SendOptions{})
			return err
		}
		state.Order = number
	}

	state.Step = conversation.StepDescription
	state.OrdersMap = nil
	if err := s.put(ctx, msg.ChatID, state); err != nil {
		return err
	}
	_, err := s.messenger.SendText(ctx, msg.ChatID, textAskDescription, gateway.SendOptions{RemoveKeyboard: true})
	return err
}

func (s *IntakeService) handleDescription(ctx context.Context, msg *gateway.Message, state *conversation.State) error {
	// A ticket may already be active if closure raced the intake; route
	// the message there instead of opening a duplicate.
	existing, err := s.router.ActiveTicket(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := s.states.Clear(ctx, msg.ChatID); err != nil {
			s.logger.Warn("state clear failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		}
		return s.router.ForwardUserMessage(ctx, msg)
	}

	if _, err := s.router.CreateTicket(ctx, msg, state.Category, state.Order); err != nil {
		return err
	}
	return s.states.Clear(ctx, msg.ChatID)
}

// ShowMenu sends the FAQ root menu.
func (s *IntakeService) ShowMenu(ctx context.Context, chatID int64) error {
	kb := menuKeyboard(s.menu.Root, "")
	_, err := s.messenger.SendText(ctx, chatID, s.menu.Title, gateway.SendOptions{Keyboard: kb})
	return err
}

// HandleMenuCallback resolves a pressed FAQ button: submenus edit the
// message in place, answers replace it with text, files and subjects send
// follow-ups.
func (s *IntakeService) HandleMenuCallback(ctx context.Context, cb *gateway.Callback) error {
	defer func() {
		if err := s.messenger.AnswerCallback(ctx, cb.ID, ""); err != nil {
			s.logger.Warn("callback answer failed", zap.String("callback_id", cb.ID), zap.Error(err))
		}
	}()

	path, ok := unpackMenuCallback(cb.Data)
	if !ok || cb.Message == nil {
		return nil
	}
	chatID := cb.Message.ChatID
	messageID := cb.Message.ID

	if path == "" {
		return s.messenger.EditText(ctx, chatID, messageID, s.menu.Title,
			gateway.SendOptions{Keyboard: menuKeyboard(s.menu.Root, "")})
	}

	node := s.menu.Find(path)
	if node == nil {
		s.logger.Warn("unknown menu path", zap.String("path", path))
		return nil
	}

	switch node.Kind {
	case menu.KindSubmenu:
		return s.messenger.EditText(ctx, chatID, messageID, node.Label,
			gateway.SendOptions{Keyboard: menuKeyboard(node.Children, path)})
	case menu.KindAnswer:
		return s.messenger.EditText(ctx, chatID, messageID, node.Answer,
			gateway.SendOptions{Keyboard: menuNavKeyboard(path), DisablePreview: true})
	case menu.KindFile:
		if _, err := s.messenger.SendDocument(ctx, chatID, node.File, node.Label); err != nil {
			s.logger.Error("menu document delivery failed", zap.String("path", path), zap.Error(err))
		}
		return nil
	case menu.KindSubject:
		state := &conversation.State{
			Step:     conversation.StepDescription,
			Category: node.Subject,
			Order:    orderUnspecified,
		}
		if err := s.put(ctx, chatID, state); err != nil {
			return err
		}
		_, err := s.messenger.SendText(ctx, chatID, textAskDescription, gateway.SendOptions{})
		return err
	default:
		return nil
	}
}

func (s *IntakeService) showCategories(ctx context.Context, chatID int64) error {
	if _, err := s.messenger.SendText(ctx, chatID, textChooseCategory, gateway.SendOptions{Keyboard: categoryKeyboard()}); err != nil {
		return err
	}
	return s.put(ctx, chatID, &conversation.State{Step: conversation.StepCategory})
}

func (s *IntakeService) put(ctx context.Context, chatID int64, state *conversation.State) error {
	state.UpdatedAt = time.Now()
	return s.states.Put(ctx, chatID, state)
}

func categoryKeyboard() *gateway.Keyboard {
	return gateway.NewReplyKeyboard(
		[]string{btnCategoryOrder},
		[]string{btnCategoryDelivery},
		[]string{btnCategoryOther},
		[]string{btnFAQ},
	)
}

// menuKeyboard renders one level of the FAQ tree. Link nodes become URL
// buttons; everything else round-trips through a callback.
func menuKeyboard(nodes []*menu.Node, parentPath string) *gateway.Keyboard {
	rows := make([][]gateway.Button, 0, len(nodes)+1)
	for _, node := range nodes {
		path := node.Key
		if parentPath != "" {
			path = parentPath + "." + node.Key
		}
		btn := gateway.Button{Label: node.Label}
		if node.Kind == menu.KindLink {
			btn.URL = node.Link
		} else {
			btn.Data = packMenuCallback(path)
		}
		rows = append(rows, []gateway.Button{btn})
	}
	if parentPath != "" {
		rows = append(rows, navRow(parentPath))
	}
	return gateway.NewInlineKeyboard(rows...)
}

// menuNavKeyboard is shown under leaf answers.
func menuNavKeyboard(path string) *gateway.Keyboard {
	return gateway.NewInlineKeyboard(navRow(path))
}

func navRow(path string) []gateway.Button {
	parent := ""
	if i := strings.LastIndex(path, "."); i >= 0 {
		parent = path[:i]
	}
	return []gateway.Button{
		{Label: "← Назад", Data: packMenuCallback(parent)},
		{Label: "🏠", Data: packMenuCallback("")},
	}
}

// parseOrderNumber salvages an order number from a retyped button label.
func parseOrderNumber(text string) (string, bool) {
	_, rest, found := strings.Cut(text, "№")
	if !found {
		return "", false
	}
	number, _, _ := strings.Cut(rest, " ")
	if number == "" {
		return "", false
	}
	return number, true
}
