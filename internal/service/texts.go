package service

// User- and staff-facing copy. Support operates in Russian.
const (
	textGreeting        = "Здравствуйте, это служба заботы о клиентах Boon Market. Чтобы мы быстрее помогли, выберите тему обращения."
	textAskPhone        = "Поделитесь номером телефона, чтобы начать работу со службой заботы."
	textShareOwnContact = "Пожалуйста, поделитесь своим номером (нажмите кнопку и выберите 'Поделиться номером телефона')."
	textInvalidPhone    = "Неверный формат номера телефона. Попробуйте снова."
	textTransientError  = "Временная ошибка в системе. Попробуйте позже."

	btnSharePhone       = "Поделиться номером телефона 📲"
	btnCategoryOrder    = "Проблема с заказом"
	btnCategoryDelivery = "Проблема с доставкой"
	btnCategoryOther    = "Другое"
	btnFAQ              = "Вопросы и ответы"
	btnBackToCategories = "Назад к категориям"

	categoryOrderIssue    = "проблемы с заказом"
	categoryDeliveryIssue = "задержки доставки"
	categoryOther         = "Другое"
	orderUnspecified      = "не указан"

	textChooseCategory = "Выберите категорию обращения или FAQ:"
	textAskDescription = "Опишите подробно проблему - мы разберемся и поможем как можно скорее"
	textGuestNoOrders  = "Вы выбрали %s, но поскольку вы не связаны с аккаунтом Boon Market, у нас нет ваших заказов. Опишите подробно проблему - мы разберемся и поможем как можно скорее"
	textChooseOrder    = "Выберите номер заказа, по которому нужна помощь\nВыбрана категория: %s"
	textNoRecentOrders = "\nНет недавних заказов"
	textOrderParseFail = "Не удалось определить номер заказа. Попробуйте еще раз."
	textUnknownCommand = "Неизвестная команда. Выберите из меню."
	labelLastOrder     = "Последний заказ от %s %s"
	labelNumberedOrder = "Заказ №%s от %s %s"

	textAckStaffed  = "Мы получили Ваше обращение №%d, спасибо! Наш оператор уже видит запрос и скоро с Вами свяжется. Пожалуйста, ожидайте ответа - обычно это займет немного времени."
	textAckOffHours = "Мы получили Ваше обращение №%d, спасибо! График работы техподдержки: с 08:00 до 23:00. Пожалуйста, ожидайте ответа - мы ответим в рабочее время."
	textAckSuffix   = "\n\nВы можете продолжить писать сообщения - они будут переданы оператору. Когда обращение будет закрыто, вас попросят оценить качество обслуживания."

	textStartIntake      = "Чтобы создать новое обращение, пожалуйста, нажмите /start и следуйте инструкциям."
	textNoThreadBinding  = "Ваше обращение найдено, но оно не связано с темой чата. Пожалуйста, создайте новое обращение через /start."
	textForwardBadReq    = "Не удалось отправить сообщение в тему поддержки. Пожалуйста, создайте новое обращение через /start."
	textForwardForbidden = "Бот не может переслать ваше сообщение. Попробуйте позже."
	textForwardFailed    = "Произошла ошибка при пересылке сообщения. Попробуйте позже."
	textReopenFailed     = "Произошла ошибка при попытке переоткрыть обращение. Попробуйте позже."
	textStorageFailed    = "Произошла ошибка при обращении к базе данных. Попробуйте позже."

	textCloseOutsideThread = "Команда /close должна использоваться внутри темы тикета."
	textNoTicketForThread  = "Тикет не найден для этой темы"
	textAlreadyClosed      = "Тикет №%d уже закрыт"
	textClosedNotice       = "Тикет №%d закрыт. Запрос решен ли вопрос отправлен пользователю."
	textSurveySendFailed   = "Не удалось отправить запрос оценки пользователю %d"

	textSurveyPrompt = "Подскажите, пожалуйста, удалось ли решить Ваш вопрос?"
	btnSurveyYes     = "Да, закрыт"
	btnSurveyNo      = "Нет, не закрыт"

	textRatingPrompt   = "Мы рады, что вопрос решен. Обращение №%d закрыто. Оцените, пожалуйста, качество обслуживания."
	textRatingThanks   = "Спасибо за оценку! Обращение №%d закрыто. Чтобы начать новое обращение — нажмите /start."
	textAlreadyRated   = "Оценка по этому обращению уже получена."
	textReopenStaffed  = "Мы оставим обращение №%d открытым. Пожалуйста, уточните, что именно осталось не решенным - оператор скоро с Вами свяжется."
	textReopenOffHours = "Мы оставим обращение №%d открытым. График работы техподдержки: с 08:00 до 23:00. Пожалуйста, уточните, что именно осталось не решенным - мы ответим в рабочее время."

	textStaffClosedConfirmed = "✅ Тикет №%d закрыт с подтверждением пользователя. Тема форума закрыта."
	textStaffReopened        = "🔄 Тикет №%d ПЕРЕОТКРЫТ: пользователь указал, что вопрос не решен. Ожидается уточнение."
	textStaffRated           = "Пользователь оценил обращение №%d: %d/5."

	textReplyBotTarget = "Невозможно отправить сообщение боту %d. Боты не могут общаться друг с другом."
	textReplyBlocked   = "Ответ не удалось отправить пользователю %d (вероятно, заблокировал бота).\nПопросите разблокировать @%s в настройках Telegram."

	textCallbackClosed   = "Обращение закрыто!"
	textCallbackReopened = "Обращение осталось открытым"
	textCallbackNoTicket = "Тикет не найден"
	textCallbackBadData  = "Неверный формат данных"

	subjectUnregistered = "Незарегистрированный в BM: %s (%s)"
	branchRussia        = "Россия"
	branchUnknown       = "Неизвестно"
	descriptionNone     = "No text"
)

const ticketSummaryTemplate = "<b>Имя:</b> %s\n" +
	"<b>Номер обращения:</b> №%d\n" +
	"<b>Категория:</b> %s\n" +
	"<b>Номер заказа:</b> %s\n" +
	"<b>Филиал/Магазин:</b> %s\n" +
	"<b>Описание:</b> %s\n\n" +
	"<i>Ответы на любые сообщения бота в этой теме будут отправлены пользователю.</i>"

const fieldUnspecified = "Не указан"
