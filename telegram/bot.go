package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/reports"
	"github.com/aquastream/collections_backend/utils"
	"github.com/aquastream/collections_backend/watersync"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	bot         *tgbotapi.BotAPI
	adminChatID int64
)

// Deps are the collaborators the command loop needs.
type Deps struct {
	Checker *watersync.Checker
	API     watersync.DeviceAPI
}

// Init initializes the Telegram bot.
func Init(token string, adminChatIDStr string) error {
	var err error
	bot, err = tgbotapi.NewBotAPI(token)
	if err != nil {
		return err
	}

	bot.Debug = false
	config.GetLogger().Infof("authorized on account %s", bot.Self.UserName)

	if adminChatIDStr != "" {
		id, err := strconv.ParseInt(adminChatIDStr, 10, 64)
		if err == nil {
			adminChatID = id
		}
	}

	return nil
}

// StartPolling starts the update loop in a background goroutine.
func StartPolling(deps Deps) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	go func() {
		for update := range updates {
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			handleCommand(update.Message, deps)
		}
	}()
}

func handleCommand(message *tgbotapi.Message, deps Deps) {
	ctx := context.Background()
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help":
		reply(chatID, "🚰 *Інкасація водоматів*\n\n"+
			"*Команди:*\n"+
			"/devices - активні апарати\n"+
			"/collection <id> [з] [по] - інкасації апарата\n"+
			"/summary [дата] - звіт за дату\n"+
			"/summary\\_today - звіт за сьогодні\n"+
			"/check\\_data [дата] - перевірка даних\n"+
			"/fetch\\_daily - запуск перевірки повноти\n"+
			"/subscribe - підписатися на звіти\n"+
			"/unsubscribe - відписатися")

	case "getid":
		reply(chatID, fmt.Sprintf("Chat ID: `%d`", chatID))

	case "devices":
		handleDevices(ctx, chatID, deps)

	case "collection":
		handleCollection(ctx, chatID, message.CommandArguments(), deps)

	case "summary":
		date := strings.TrimSpace(message.CommandArguments())
		if date == "" {
			date = time.Now().In(utils.FleetLocation()).Format(utils.DateLayout)
		}
		handleSummary(ctx, chatID, date)

	case "summary_today":
		date := time.Now().In(utils.FleetLocation()).Format(utils.DateLayout)
		handleSummary(ctx, chatID, date)

	case "check_data":
		date := strings.TrimSpace(message.CommandArguments())
		if date == "" {
			date = time.Now().In(utils.FleetLocation()).AddDate(0, 0, -1).Format(utils.DateLayout)
		}
		handleCheckData(ctx, chatID, date)

	case "fetch_daily":
		handleFetchDaily(chatID, deps)

	case "subscribe":
		name := strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)
		if _, err := models.SubscribeWorker(ctx, chatID, name); err != nil {
			reply(chatID, fmt.Sprintf("❌ Помилка підписки: %v", err))
			return
		}
		reply(chatID, "✅ Підписано на щоденні звіти")

	case "unsubscribe":
		if err := models.UnsubscribeWorker(ctx, chatID); err != nil {
			reply(chatID, fmt.Sprintf("❌ Помилка: %v", err))
			return
		}
		reply(chatID, "✅ Відписано від щоденних звітів")

	default:
		reply(chatID, "Невідома команда. Використайте /help")
	}
}

func handleDevices(ctx context.Context, chatID int64, deps Deps) {
	devices, err := watersync.CachedDevices(ctx, deps.API)
	if err != nil {
		reply(chatID, fmt.Sprintf("❌ Не вдалося отримати список апаратів: %v", err))
		return
	}

	var active []watersync.Device
	for _, dev := range devices {
		if dev.IsActive() {
			active = append(active, dev)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📱 *Апарати*\n\n🟢 Активних: %d\n📊 Всього: %d\n\n", len(active), len(devices))
	for _, dev := range active {
		fmt.Fprintf(&b, "`%s` %s\n", dev.ExternalId(), dev.DisplayName())
	}

	sendChunked(chatID, b.String())
}

func handleCollection(ctx context.Context, chatID int64, args string, deps Deps) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		reply(chatID, "Використання: `/collection <id> [YYYY-MM-DD] [YYYY-MM-DD]`")
		return
	}

	deviceId := fields[0]
	loc := utils.FleetLocation()
	ds := time.Now().In(loc).AddDate(0, 0, -7).Format(utils.DateLayout)
	de := time.Now().In(loc).Format(utils.DateLayout)
	if len(fields) >= 3 {
		ds, de = fields[1], fields[2]
	}

	entries, err := deps.API.DeviceCollections(ctx, deviceId, ds, de)
	if err != nil {
		reply(chatID, fmt.Sprintf("❌ Помилка API: %v", err))
		return
	}
	if len(entries) == 0 {
		reply(chatID, fmt.Sprintf("Немає інкасацій для апарата %s за %s — %s", deviceId, ds, de))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 *Інкасації апарата %s* (%s — %s)\n\n", deviceId, ds, de)
	for _, entry := range entries {
		sanitized := watersync.SanitizeEntry(entry)
		if sanitized.IsZero() {
			continue
		}
		fmt.Fprintf(&b, "%s: купюри %s, монети %s, всього %s грн\n",
			entry.Date, sanitized.Banknotes.StringFixed(2), sanitized.Coins.StringFixed(2), sanitized.TotalSum.StringFixed(2))
	}

	sendChunked(chatID, b.String())
}

func handleSummary(ctx context.Context, chatID int64, date string) {
	reply(chatID, fmt.Sprintf("📊 Генерація звіту інкасації для %s...", date))

	summary, err := reports.DailySummary(ctx, date)
	if err != nil {
		reply(chatID, fmt.Sprintf("❌ Помилка генерації звіту: %v", err))
		return
	}
	sendChunked(chatID, summary.Message)
}

func handleCheckData(ctx context.Context, chatID int64, date string) {
	dayStart, err := utils.ParseDate(date, utils.FleetLocation())
	if err != nil {
		reply(chatID, "Невірний формат дати, очікується YYYY-MM-DD")
		return
	}

	rows, err := models.CollectionSummaryByDate(ctx, dayStart)
	if err != nil {
		reply(chatID, fmt.Sprintf("❌ Помилка: %v", err))
		return
	}
	if len(rows) == 0 {
		reply(chatID, fmt.Sprintf("❌ Даних інкасації за %s не знайдено", date))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Дані за %s*\n\n", date)
	for _, row := range rows {
		fmt.Fprintf(&b, "Апарат %s: %d інкасацій, купюри %s, монети %s\n",
			row.DeviceId, row.CollectionCount, row.TotalBanknotes.StringFixed(2), row.TotalCoins.StringFixed(2))
	}
	sendChunked(chatID, b.String())
}

func handleFetchDaily(chatID int64, deps Deps) {
	if adminChatID != 0 && chatID != adminChatID {
		reply(chatID, "❌ Команда доступна лише адміністратору")
		return
	}
	if deps.Checker.InFlight() {
		reply(chatID, "⏳ Перевірка повноти вже виконується")
		return
	}

	reply(chatID, "🔄 Запуск перевірки повноти даних інкасації...")
	go func() {
		report := deps.Checker.Run(context.Background(), "telegram")
		sendChunked(chatID, report.Summary())
	}()
}

func reply(chatID int64, text string) {
	if bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		config.GetLogger().Errorf("bot send error: %v", err)
	}
}

// sendChunked splits a long message and sends the chunks in order with a
// short delay to stay under Telegram rate limits.
func sendChunked(chatID int64, text string) {
	if bot == nil {
		return
	}

	chunks := SplitMessage(text, MaxMessageLength)
	for i, chunk := range chunks {
		if len(chunks) > 1 {
			chunk = fmt.Sprintf("%s (%d/%d)", chunk, i+1, len(chunks))
		}
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = "Markdown"
		msg.DisableWebPagePreview = true
		if _, err := bot.Send(msg); err != nil {
			config.GetLogger().Errorf("failed to send message chunk %d/%d to chat %d: %v", i+1, len(chunks), chatID, err)
		}
		if i < len(chunks)-1 {
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// SendNotification sends a message to the admin chat.
func SendNotification(message string) {
	if bot == nil || adminChatID == 0 {
		return
	}
	sendChunked(adminChatID, message)
}

// SendPersonalNotification sends a message to a specific chat.
func SendPersonalNotification(chatID int64, message string) error {
	if bot == nil {
		return fmt.Errorf("bot not initialized")
	}
	msg := tgbotapi.NewMessage(chatID, message)
	msg.ParseMode = "Markdown"
	_, err := bot.Send(msg)
	return err
}
